package container

import (
	"github.com/billed/bill-review/internal/config"
	httpapi "github.com/billed/bill-review/internal/interfaces/http"
	"github.com/billed/bill-review/pkg/database"
)

// serverConfig maps the loaded configuration onto the HTTP adapter's.
// An empty metrics path disables the endpoint.
func serverConfig(cfg *config.Config) httpapi.ServerConfig {
	sc := httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Mode:            cfg.Server.Mode,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	}
	return sc
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}
