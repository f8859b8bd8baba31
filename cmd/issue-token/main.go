// Command issue-token mints a viewer token for the API.
//
//	issue-token -email jean.limbert@billed.com -role Admin
//	issue-token -email a@a -role Employee -automated
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/config"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	email := flag.String("email", "", "viewer email")
	role := flag.String("role", string(entity.RoleEmployee), "Employee or Admin")
	automated := flag.Bool("automated", false, "mark the token as issued for scripts and test runs")
	flag.Parse()

	if err := utils.ValidateEmail(*email); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, err := tokens.Generate(*email, entity.Role(*role), *automated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
