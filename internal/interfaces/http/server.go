// Package http exposes the bill review engine over a JSON API.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/billed/bill-review/internal/application/service"
	"github.com/billed/bill-review/internal/auth"
	"github.com/billed/bill-review/internal/infrastructure/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	bills      service.BillsService
	dashboard  service.DashboardService
	tokens     *auth.JWTManager
	recorder   *metrics.Recorder
	logger     Logger

	mu    sync.Mutex
	errCh chan error
}

// NewServer creates a new HTTP server. recorder may be nil to disable
// request metrics and the metrics endpoint.
func NewServer(
	config ServerConfig,
	bills service.BillsService,
	dashboard service.DashboardService,
	tokens *auth.JWTManager,
	recorder *metrics.Recorder,
	logger Logger,
) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config:    config,
		router:    gin.New(),
		bills:     bills,
		dashboard: dashboard,
		tokens:    tokens,
		recorder:  recorder,
		logger:    logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if s.recorder != nil {
		s.router.Use(s.metricsMiddleware())
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.bills, s.dashboard, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.recorder != nil && s.config.MetricsPath != "" {
		s.router.GET(s.config.MetricsPath, gin.WrapH(s.recorder.Handler()))
	}

	api := s.router.Group("/api")
	api.Use(s.authMiddleware())
	{
		api.GET("/bills", handlers.ListBills)
		api.POST("/logout", handlers.Logout)

		dashboard := api.Group("/dashboard")
		dashboard.Use(requireAdmin())
		{
			dashboard.GET("", handlers.GetDashboard)
			dashboard.POST("/groups/:index/toggle", handlers.ToggleGroup)
			dashboard.POST("/bills/:id/select", handlers.SelectBill)
			dashboard.POST("/bills/:id/accept", handlers.AcceptBill)
			dashboard.POST("/bills/:id/refuse", handlers.RefuseBill)
			dashboard.GET("/bills/:id/receipt", handlers.GetReceipt)
			dashboard.GET("/export", handlers.ExportReport)
		}
	}
}

// Name identifies the server in the worker manager
func (s *Server) Name() string {
	return "http-server"
}

// Start begins serving in the background. Listen failures are reported on
// Err.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("http server already started")
	}

	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.errCh = make(chan error, 1)

	s.logger.Info("Starting HTTP server", "address", s.httpServer.Addr)

	srv, errCh := s.httpServer, s.errCh
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
			errCh <- err
		}
		close(errCh)
	}()
	return nil
}

// Err delivers a listen failure, and is closed once the server stops
func (s *Server) Err() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCh
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
