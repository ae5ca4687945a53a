package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/dispatcher"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/service"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/repository"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/worker"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialised in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	conn         *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	store        port.ConversationStore

	// Infrastructure - External
	extractor port.EntityExtractor
	senders   []port.MessageSender

	// Application
	rules      *RulesBundle
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	closers []closer
	ready   atomic.Bool
	closed  atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Records       *repository.RecordRepository
	Audit         *repository.AuditRepository
	Residents     *repository.ResidentRepository
	Messages      *repository.MessageRepository
	Notifications *repository.NotificationRepository
	Conversations *repository.ConversationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Router       service.MessageRouter
	Audit        service.AuditService
	Notification service.NotificationService
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
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
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

// closer releases one component during shutdown
type closer struct {
	name  string
	close func() error
}

// Start brings the components up in dependency order: storage, rules,
// external clients, services and finally workers. A failing stage releases
// everything started before it. When startWorkers is false the workers are
// built but left idle for the one-shot commands.
func (c *Container) Start(ctx context.Context, startWorkers bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed.Load():
		return fmt.Errorf("container has been closed")
	case c.ready.Load():
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closers = append(c.closers, closer{"context", func() error { c.cancel(); return nil }})

	stages := []struct {
		name string
		run  func() error
	}{
		{"database", c.initDatabase},
		{"rules", c.initRules},
		{"external clients", c.initExternalClients},
		{"services", c.initServices},
		{"workers", func() error { return c.initWorkers(startWorkers) }},
	}
	for _, stage := range stages {
		if err := stage.run(); err != nil {
			if cerr := c.release(); cerr != nil {
				c.logger.Warn("Cleanup after failed start was incomplete", zap.Error(cerr))
			}
			return fmt.Errorf("failed to initialize %s: %w", stage.name, err)
		}
		c.logger.Debug("Component initialized", zap.String("component", stage.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started", zap.Bool("workers", startWorkers))
	return nil
}

// Close releases the components in reverse start order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.closed.Store(true)
	c.ready.Store(false)

	if err := c.release(); err != nil {
		return fmt.Errorf("container closed with errors: %w", err)
	}
	c.logger.Info("Container closed")
	return nil
}

// release runs and forgets the registered closers, newest first
func (c *Container) release() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.close(); err != nil {
			c.logger.Error("Failed to release component", zap.String("component", cl.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", cl.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.conn == nil:
		set("database", false, "not initialized")
	default:
		if err := c.conn.Ping(); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.conn != nil && c.config.Database.MigrationsDir != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		pending, err := database.NewMigrator(c.conn, c.logger).Pending(ctx, c.config.Database.MigrationsDir)
		cancel()
		switch {
		case err != nil:
			set("migrations", false, err.Error())
		case len(pending) > 0:
			set("migrations", false, fmt.Sprintf("%d pending", len(pending)))
		default:
			set("migrations", true, "")
		}
	}

	if c.workers != nil {
		set("workers", c.workers.IsRunning(), c.workers.Summary())
	} else {
		set("workers", false, "not initialized")
	}

	if c.dispatcher != nil {
		stats := c.dispatcher.Stats()
		set("dispatcher", true, fmt.Sprintf("queued: %d, dropped: %d", stats.Queued, stats.Dropped))
	} else {
		set("dispatcher", false, "not initialized")
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.conn = bundle.Conn
	c.db = bundle.TransactionMgr
	c.closers = append(c.closers, closer{"database", c.conn.Close})

	if c.repositories, err = ProvideRepositories(c.db, &c.config.Triage, c.logger); err != nil {
		return err
	}
	c.store, err = ProvideConversationStore(&c.config.Triage, c.repositories)
	return err
}

func (c *Container) initRules() error {
	rules, err := ProvideRules(&c.config.Triage, c.logger)
	if err != nil {
		return err
	}
	c.rules = rules
	return nil
}

func (c *Container) initExternalClients() error {
	extractor, err := ProvideExtractor(&c.config.Extractor, c.rules.Store, c.logger)
	if err != nil {
		return err
	}
	c.extractor = extractor
	c.senders = ProvideSenders(&c.config.Lark, c.logger)
	return nil
}

// initServices creates the dispatcher and the application services. The
// dispatcher drains queued notifications on close, so it is registered
// after the database and released before it.
func (c *Container) initServices() error {
	c.dispatcher = ProvideDispatcher(&c.config.Dispatcher, c.logger)
	c.closers = append(c.closers, closer{"dispatcher", c.dispatcher.Close})

	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		Rules:      c.rules,
		Store:      c.store,
		Extractor:  c.extractor,
		Senders:    c.senders,
		Dispatcher: c.dispatcher,
		Triage:     &c.config.Triage,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) initWorkers(start bool) error {
	c.workers = ProvideWorkers(&WorkerDeps{
		Store:  c.store,
		Rules:  c.rules.Store,
		Triage: &c.config.Triage,
		Logger: c.logger,
	})
	if !start {
		return nil
	}
	if err := c.workers.StartAll(c.ctx); err != nil {
		return err
	}
	c.closers = append(c.closers, closer{"workers", c.workers.StopAll})
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// ConversationStore returns the active conversation store.
func (c *Container) ConversationStore() port.ConversationStore {
	return c.store
}

// Extractor returns the entity extractor.
func (c *Container) Extractor() port.EntityExtractor {
	return c.extractor
}

// Senders returns the staff notification channels.
func (c *Container) Senders() []port.MessageSender {
	return c.senders
}

// Handbook returns the policy handbook.
func (c *Container) Handbook() *approval.Handbook {
	return c.rules.Handbook
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// ServiceLogger adapts the container's zap logger to the key/value
// logger interfaces of the service and HTTP layers.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the key/value Logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
