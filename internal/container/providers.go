package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/dispatcher"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/service"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/workflow"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/conversation"
	infraLark "github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/external/lark"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/external/logsink"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/external/openai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/repository"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/worker"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// RulesBundle holds the classifier rule store and the engines built on it.
type RulesBundle struct {
	Store      *classifier.RuleStore
	Classifier *classifier.Classifier
	Slots      workflow.SlotFillingEngine
	Approvals  *approval.Engine
	Handbook   *approval.Handbook
}

// ProvideDatabase opens the database and runs pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MigrationsDir != "" {
		if err := database.NewMigrator(conn, logger).RunMigrations(ctx, cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on db.
func ProvideRepositories(db *sqlite.DB, triage *TriageConfig, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Records:       repository.NewRecordRepository(db, logger),
		Audit:         repository.NewAuditRepository(db, logger),
		Residents:     repository.NewResidentRepository(db, logger),
		Messages:      repository.NewMessageRepository(db, logger),
		Notifications: repository.NewNotificationRepository(db, logger),
		Conversations: repository.NewConversationRepository(db, triage.ConversationTTL, logger),
	}, nil
}

// ProvideConversationStore picks the configured conversation backend.
func ProvideConversationStore(triage *TriageConfig, repos *RepositoryBundle) (port.ConversationStore, error) {
	switch triage.ConversationStore {
	case "", "sqlite":
		return repos.Conversations, nil
	case "memory":
		return conversation.NewMemoryStore(triage.ConversationTTL), nil
	default:
		return nil, fmt.Errorf("unknown conversation store %q", triage.ConversationStore)
	}
}

// ProvideRules loads the classifier keyword table and builds the engines.
// A missing rules path falls back to the built-in table.
func ProvideRules(triage *TriageConfig, logger *zap.Logger) (*RulesBundle, error) {
	rules := classifier.DefaultRules()
	if triage.RulesPath != "" {
		rs, err := classifier.LoadRuleSet(triage.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = classifier.Compile(rs)
		logger.Info("Classifier rules loaded", zap.String("path", triage.RulesPath))
	}
	store := classifier.NewRuleStore(rules)

	engine, err := approval.NewEngine(triage.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to compile approval rules: %w", err)
	}

	return &RulesBundle{
		Store:      store,
		Classifier: classifier.New(store),
		Slots:      workflow.NewSlotFillingEngine(store),
		Approvals:  engine,
		Handbook:   approval.NewHandbook(triage.Policy),
	}, nil
}

// ProvideExtractor creates the configured entity extractor.
func ProvideExtractor(cfg *ExtractorConfig, rules *classifier.RuleStore, logger *zap.Logger) (port.EntityExtractor, error) {
	switch cfg.Backend {
	case "lexical":
		logger.Info("Using lexical entity extractor")
		return ai.NewLexicalExtractor(rules), nil
	case "openai":
		prompts, err := openai.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Using OpenAI entity extractor", zap.String("model", cfg.Model))
		client := openai.NewClient(cfg.APIKey, cfg.BaseURL)
		return openai.NewExtractor(client, cfg.Model, prompts, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
	}
}

// ProvideSenders returns the staff notification channels. The log channel
// is always present; Lark is added when chats are configured.
func ProvideSenders(cfg *LarkConfig, logger *zap.Logger) []port.MessageSender {
	senders := []port.MessageSender{logsink.NewSender(logger)}
	if len(cfg.Chats) == 0 {
		return senders
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		Chats:     cfg.Chats,
	}, logger.Named("lark"))
	logger.Info("Lark notifications enabled", zap.Int("chats", len(cfg.Chats)))
	return append(senders, infraLark.NewMessenger(client, cfg.Chats, logger))
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *DispatcherConfig, logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
		dispatcher.WithWorkers(cfg.Workers),
		dispatcher.WithQueueSize(cfg.QueueSize),
	)
}

// ServiceDeps are the inputs of ProvideServices.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Rules      *RulesBundle
	Store      port.ConversationStore
	Extractor  port.EntityExtractor
	Senders    []port.MessageSender
	Dispatcher dispatcher.Dispatcher
	Triage     *TriageConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.Rules == nil {
		return nil, fmt.Errorf("repositories and rules are required")
	}
	log := &zapLoggerAdapter{logger: deps.Logger}

	audit := service.NewAuditService(deps.Repos.Audit, log)

	notifications := service.NewNotificationService(deps.Senders, deps.Repos.Notifications, log)
	notifications.Register(deps.Dispatcher)

	router, err := service.NewMessageRouter(service.RouterDeps{
		Classifier: deps.Rules.Classifier,
		Extractor:  deps.Extractor,
		Gate:       deps.Triage.Gate,
		Slots:      deps.Rules.Slots,
		Approvals:  deps.Rules.Approvals,
		Handbook:   deps.Rules.Handbook,
		Store:      deps.Store,
		Locker:     conversation.NewKeyedMutex(),
		Records:    deps.Repos.Records,
		Residents:  deps.Repos.Residents,
		Messages:   deps.Repos.Messages,
		Audit:      audit,
		Dispatcher: deps.Dispatcher,
		Logger:     log,
		Location:   deps.Triage.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	return &ServiceBundle{
		Router:       router,
		Audit:        audit,
		Notification: notifications,
	}, nil
}

// WorkerDeps are the inputs of ProvideWorkers.
type WorkerDeps struct {
	Store  port.ConversationStore
	Rules  *classifier.RuleStore
	Triage *TriageConfig
	Logger *zap.Logger
}

// ProvideWorkers creates the background workers.
func ProvideWorkers(deps *WorkerDeps) *worker.Manager {
	m := worker.NewManager(deps.Logger)
	m.Register(worker.NewExpiryWorker(deps.Store, deps.Triage.ExpiryInterval, deps.Logger))
	if deps.Triage.RulesPath != "" {
		m.Register(worker.NewRulesWatcher(deps.Triage.RulesPath, deps.Rules, deps.Logger))
	}
	return m
}
