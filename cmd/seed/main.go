// Command seed loads bill fixtures into the database, the way the upload
// form would create them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/config"
	"github.com/billed/bill-review/internal/container"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	fixtures := flag.String("file", "cmd/seed/testdata/bills.json", "JSON array of bills")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: cfg.Logger.Level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	f, err := os.Open(*fixtures)
	if err != nil {
		logger.Fatal("Failed to open fixtures", zap.Error(err))
	}
	defer f.Close()

	bills, err := loadFixtures(f)
	if err != nil {
		logger.Fatal("Invalid fixtures", zap.String("file", *fixtures), zap.Error(err))
	}

	ctx := context.Background()
	db, err := container.ProvideDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	repo := container.ProvideBillRepository(db, logger)
	for i := range bills {
		if err := repo.Create(ctx, &bills[i]); err != nil {
			logger.Fatal("Failed to create bill", zap.Int("index", i), zap.Error(err))
		}
		logger.Info("Bill created", zap.String("id", bills[i].ID), zap.String("email", bills[i].Email))
	}
	logger.Info("Seed complete", zap.Int("count", len(bills)))
}

// loadFixtures decodes and checks a JSON array of bills. Text fields are
// sanitized and an empty status means pending.
func loadFixtures(r io.Reader) ([]entity.Bill, error) {
	var bills []entity.Bill
	if err := json.NewDecoder(r).Decode(&bills); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	for i := range bills {
		b := &bills[i]
		b.Name = utils.SanitizeString(b.Name)
		b.Type = utils.SanitizeString(b.Type)
		b.Commentary = utils.SanitizeString(b.Commentary)
		b.Email = utils.SanitizeString(b.Email)

		if err := utils.ValidateEmail(b.Email); err != nil {
			return nil, fmt.Errorf("bill %d: %w", i, err)
		}
		for _, amount := range []*float64{b.Amount, b.VAT} {
			if err := utils.ValidateAmount(amount); err != nil {
				return nil, fmt.Errorf("bill %d: %w", i, err)
			}
		}
		if b.Status == "" {
			b.Status = entity.StatusPending
		}
		if !b.Status.IsKnown() {
			return nil, fmt.Errorf("bill %d: unknown status %q", i, b.Status)
		}
	}
	return bills, nil
}
