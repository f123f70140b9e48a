package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/application/port"
	"github.com/garyjia/evidence-check/internal/application/service"
	"github.com/garyjia/evidence-check/internal/config"
	"github.com/garyjia/evidence-check/internal/domain/audit"
	"github.com/garyjia/evidence-check/internal/export"
	httpiface "github.com/garyjia/evidence-check/internal/interfaces/http"
	"github.com/garyjia/evidence-check/internal/report"
	"github.com/garyjia/evidence-check/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and released in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Domain
	engine *audit.Engine
	parser *report.Parser

	// Infrastructure - External
	reader   port.OCREngine
	vision   port.VisionService
	notifier port.VerdictNotifier
	archiver *export.Archiver

	// Application
	auditService service.AuditService

	// Interfaces
	server *httpiface.Server

	// Lifecycle
	mu     sync.RWMutex
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

// Start initializes all components:
// 1. Audit engine and report parser
// 2. External clients (OCR, vision service, Lark)
// 3. Application services
// 4. HTTP server
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

	// Step 1: Initialize domain components
	engine, err := ProvideEngine(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize audit engine: %w", err)
	}
	c.engine = engine
	c.parser = report.NewParser(c.logger.Named("report"))
	c.logger.Info("Audit engine initialized", zap.Any("config", engine.Config()))

	// Step 2: Initialize external clients
	if err := c.initExternalClients(); err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	// Step 3: Initialize application services
	c.auditService = service.NewAuditService(
		c.engine,
		c.parser,
		c.reader,
		c.vision,
		c.notifier,
		utils.NewKVLogger(c.logger.Named("service")),
	)
	c.logger.Info("Application services initialized")

	// Step 4: Initialize HTTP server
	c.server = ProvideServer(c.config, c.auditService, c.archiver, c.logger)
	c.logger.Info("HTTP server initialized", zap.String("address", c.server.Address()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

func (c *Container) initExternalClients() error {
	reader, err := ProvideDocumentReader(c.config, c.logger)
	if err != nil {
		return err
	}
	c.reader = reader

	c.vision = ProvideVisionClient(c.config, c.logger)

	// A nil *Notifier must not become a non-nil interface
	if notifier := ProvideNotifier(c.config, c.logger); notifier != nil {
		c.notifier = notifier
	}
	if archiver := ProvideArchiver(c.config, c.logger); archiver != nil {
		c.archiver = archiver
	}
	return nil
}

// Close releases components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Stop HTTP server (reverse of step 4)
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	// Services and external clients hold no resources

	c.closed.Store(true)
	c.ready.Store(false)

	if err := c.logger.Sync(); err != nil {
		c.logger.Debug("Logger sync failed", zap.Error(err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns the health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, ok bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: ok, Message: msg}
		if !ok {
			status.Overall = false
		}
	}

	check("engine", c.engine != nil, "")
	check("document_reader", c.reader != nil, "")
	check("vision", c.vision != nil, c.config.Vision.Endpoint)

	// Optional components never fail the overall status
	notifier := "disabled"
	if c.notifier != nil {
		notifier = "lark"
	}
	status.Components["notifier"] = ComponentHealth{Healthy: true, Message: notifier}

	return status
}

// AuditService returns the audit application service
func (c *Container) AuditService() service.AuditService {
	return c.auditService
}

// Server returns the HTTP server
func (c *Container) Server() *httpiface.Server {
	return c.server
}

// Logger returns the container logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container configuration
func (c *Container) Config() *config.Config {
	return c.config
}
