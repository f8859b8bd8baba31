// Package container provides dependency injection and lifecycle management
// for the bill review service following Clean Architecture principles.
package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/config"
	"github.com/billed/bill-review/internal/infrastructure/metrics"
	"github.com/billed/bill-review/internal/infrastructure/persistence/repository"
	"github.com/billed/bill-review/internal/infrastructure/worker"
	httpapi "github.com/billed/bill-review/internal/interfaces/http"
	"github.com/billed/bill-review/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	database *DatabaseBundle
	bills    *repository.BillRepository

	// Infrastructure - Storage and metrics
	storage  *StorageBundle
	recorder *metrics.Recorder

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	tokens     *auth.JWTManager

	// Interfaces
	server  *httpapi.Server
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and starts serving:
// 1. Database, migrations and the bill repository
// 2. Receipt storage, previewer and report writer
// 3. Metrics and the event dispatcher
// 4. Application services
// 5. HTTP server, run by the worker manager
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	c.storage = ProvideStorage(c.config.Storage, c.logger)
	c.logger.Info("Storage initialized", zap.String("receipts_dir", c.config.Storage.ReceiptsDir))

	if c.config.Metrics.Enabled {
		c.recorder = metrics.NewRecorder()
	}
	c.dispatcher = ProvideDispatcher(c.recorder, c.logger)

	c.services = ProvideServices(c.billStore(), c.storage, c.dispatcher, auth.ContextResolver{}, c.logger)
	c.logger.Info("Application services initialized")

	c.tokens = auth.NewJWTManager(c.config.Auth.JWTSecret, c.config.Auth.Issuer, c.config.Auth.TokenTTL)
	c.server = httpapi.NewServer(
		serverConfig(c.config),
		c.services.Bills,
		c.services.Dashboard,
		c.tokens,
		c.recorder,
		utils.NewKVLogger(c.logger.Named("http")),
	)

	c.workers = worker.NewWorkerManager(c.logger)
	c.workers.Register(c.server)
	if err := c.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	if c.config.Database.Path == "" {
		c.logger.Warn("No database path configured, running without a bill store")
		return nil
	}

	bundle, err := ProvideDatabase(ctx, c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.database = bundle
	c.bills = ProvideBillRepository(bundle, c.logger)
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))
	return nil
}

// billStore avoids handing a typed nil to the services
func (c *Container) billStore() port.BillStore {
	if c.bills == nil {
		return nil
	}
	return c.bills
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}
	c.ready.Store(false)

	c.logger.Info("Closing container")

	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components. A missing database is
// reported but does not fail the service.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.database == nil:
		status.Components["database"] = ComponentHealth{Healthy: true, Message: "not configured"}
	default:
		if err := c.database.Raw.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	if c.workers != nil && c.workers.IsRunning() {
		status.Components["workers"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		}
	} else {
		status.Components["workers"] = ComponentHealth{Healthy: false, Message: "not running"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// Server returns the HTTP server; its Err channel reports listen failures.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Bills returns the bill repository, or nil without a database.
func (c *Container) Bills() *repository.BillRepository {
	return c.bills
}

// Tokens returns the viewer token manager.
func (c *Container) Tokens() *auth.JWTManager {
	return c.tokens
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
