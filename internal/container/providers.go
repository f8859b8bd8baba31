package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/application/service"
	"github.com/billed/bill-review/internal/config"
	"github.com/billed/bill-review/internal/infrastructure/export"
	"github.com/billed/bill-review/internal/infrastructure/metrics"
	"github.com/billed/bill-review/internal/infrastructure/persistence/repository"
	"github.com/billed/bill-review/internal/infrastructure/persistence/sqlite"
	"github.com/billed/bill-review/internal/infrastructure/receipt"
	"github.com/billed/bill-review/internal/infrastructure/storage"
	"github.com/billed/bill-review/migrations"
	"github.com/billed/bill-review/pkg/database"
	"github.com/billed/bill-review/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
}

// Close closes the underlying connection
func (b *DatabaseBundle) Close() error {
	return b.Raw.Close()
}

// StorageBundle holds receipt storage and the adapters built on it.
type StorageBundle struct {
	FileStorage port.FileStorage
	Previewer   port.ReceiptPreviewer
	Report      port.ReportWriter
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Bills     service.BillsService
	Dashboard service.DashboardService
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(databaseConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Raw:            db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideBillRepository creates the SQLite bill store
func ProvideBillRepository(bundle *DatabaseBundle, logger *zap.Logger) *repository.BillRepository {
	return repository.NewBillRepository(bundle.TransactionMgr, logger)
}

// ProvideStorage creates receipt storage, the previewer and the report writer.
func ProvideStorage(cfg config.StorageConfig, logger *zap.Logger) *StorageBundle {
	files := storage.NewLocalFileStorage(cfg.ReceiptsDir, logger)
	return &StorageBundle{
		FileStorage: files,
		Previewer:   receipt.NewPreviewer(files, cfg.PreviewDPI, logger),
		Report:      export.NewReportWriter(logger),
	}
}

// ProvideDispatcher creates the event dispatcher and subscribes the metrics
// recorder when there is one.
func ProvideDispatcher(recorder *metrics.Recorder, logger *zap.Logger) dispatcher.Dispatcher {
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger.Named("dispatcher"))))
	if recorder != nil {
		recorder.Subscribe(d)
	}
	return d
}

// ProvideServices creates the application services. store may be nil, in
// which case reviews degrade to navigation only.
func ProvideServices(store port.BillStore, st *StorageBundle, d dispatcher.Dispatcher, resolver port.ViewerResolver, logger *zap.Logger) *ServiceBundle {
	kv := utils.NewKVLogger(logger)
	return &ServiceBundle{
		Bills:     service.NewBillsService(store, resolver, kv),
		Dashboard: service.NewDashboardService(store, st.Previewer, st.Report, d, kv),
	}
}
