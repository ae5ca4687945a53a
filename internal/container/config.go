// Package container provides dependency injection and lifecycle management
// for the hostel triage engine.
package container

import (
	"fmt"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// Config holds all configuration for the Container.
type Config struct {
	Database   DatabaseConfig
	Extractor  ExtractorConfig
	Lark       LarkConfig
	Triage     TriageConfig
	Dispatcher DispatcherConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir is the path to migration files
	MigrationsDir string
}

// ExtractorConfig selects and configures the entity extractor.
type ExtractorConfig struct {
	// Backend is "openai" or "lexical"
	Backend string

	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	PromptsPath string
}

// LarkConfig holds Lark API settings. Notifications go to Lark only
// when Chats is non-empty.
type LarkConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
	Timeout   time.Duration
	Chats     map[entity.StaffRole]string
}

// TriageConfig holds routing engine settings.
type TriageConfig struct {
	// RulesPath is the watched classifier keyword file; empty uses the defaults
	RulesPath string

	Location *time.Location

	// ConversationStore is "sqlite" or "memory"
	ConversationStore string
	ConversationTTL   time.Duration
	ExpiryInterval    time.Duration

	Gate   ai.ConfidenceGate
	Policy approval.Policy
}

// DispatcherConfig sizes the notification worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/hostel.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			MigrationsDir:   "migrations",
		},
		Extractor: ExtractorConfig{
			Backend:     "lexical",
			Model:       "gpt-4o-mini",
			Timeout:     20 * time.Second,
			PromptsPath: "configs/prompts.yaml",
		},
		Triage: TriageConfig{
			Location:          time.UTC,
			ConversationStore: "sqlite",
			ConversationTTL:   24 * time.Hour,
			ExpiryInterval:    10 * time.Minute,
			Gate:              ai.DefaultConfidenceGate(),
			Policy:            approval.DefaultPolicy(),
		},
		Dispatcher: DispatcherConfig{
			Workers:   4,
			QueueSize: 256,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Extractor.Backend {
	case "openai":
		if c.Extractor.APIKey == "" {
			return fmt.Errorf("openai.api_key is required")
		}
	case "lexical":
	default:
		return fmt.Errorf("unknown extractor backend %q", c.Extractor.Backend)
	}

	if len(c.Lark.Chats) > 0 && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark credentials are required when chats are configured")
	}

	if c.Triage.ConversationTTL <= 0 {
		return fmt.Errorf("conversation ttl must be positive")
	}

	return c.Triage.Gate.Validate()
}
