package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
)

// Extractor backends
const (
	ExtractorOpenAI  = "openai"
	ExtractorLexical = "lexical"
)

// Conversation store backends
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Lark       LarkConfig       `mapstructure:"lark"`
	Triage     TriageConfig     `mapstructure:"triage"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// LarkConfig holds Lark API configuration. Chats maps staff roles
// (warden, security, maintenance, admin) to group chat ids.
type LarkConfig struct {
	AppID     string            `mapstructure:"app_id"`
	AppSecret string            `mapstructure:"app_secret"`
	BaseURL   string            `mapstructure:"base_url"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	Chats     map[string]string `mapstructure:"chats"`
}

// Enabled reports whether staff notifications go to Lark
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && len(c.Chats) > 0
}

// TriageConfig holds the routing engine settings
type TriageConfig struct {
	Extractor         string          `mapstructure:"extractor"`
	RulesPath         string          `mapstructure:"rules_path"`
	Timezone          string          `mapstructure:"timezone"`
	ConversationStore string          `mapstructure:"conversation_store"`
	ConversationTTL   time.Duration   `mapstructure:"conversation_ttl"`
	ExpiryInterval    time.Duration   `mapstructure:"expiry_interval"`
	MinConfidence     float64         `mapstructure:"min_confidence"`
	ConfidenceFloor   float64         `mapstructure:"confidence_floor"`
	Policy            approval.Policy `mapstructure:"policy"`
}

// DispatcherConfig sizes the notification worker pool
type DispatcherConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file, a .env file next to the working
// directory, and environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of path unless they are already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "data/hostel.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "migrations")

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 20*time.Second)
	v.SetDefault("openai.prompts_path", "configs/prompts.yaml")

	// Triage defaults
	policy := approval.DefaultPolicy()
	v.SetDefault("triage.extractor", ExtractorOpenAI)
	v.SetDefault("triage.timezone", "UTC")
	v.SetDefault("triage.conversation_store", StoreSQLite)
	v.SetDefault("triage.conversation_ttl", 24*time.Hour)
	v.SetDefault("triage.expiry_interval", 10*time.Minute)
	v.SetDefault("triage.min_confidence", 0.80)
	v.SetDefault("triage.confidence_floor", 0.30)
	v.SetDefault("triage.policy.max_leave_days", policy.MaxLeaveDays)
	v.SetDefault("triage.policy.max_guest_nights", policy.MaxGuestNights)
	v.SetDefault("triage.policy.violation_lookback_days", policy.ViolationLookbackDays)
	v.SetDefault("triage.policy.max_duration_days", policy.MaxDurationDays)
	v.SetDefault("triage.policy.high_urgency_words", policy.HighUrgencyWords)
	v.SetDefault("triage.policy.medium_urgency_words", policy.MediumUrgencyWords)

	// Dispatcher defaults
	v.SetDefault("lark.timeout", 10*time.Second)

	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.queue_size", 256)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("triage.extractor", "TRIAGE_EXTRACTOR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Triage.Extractor {
	case ExtractorOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required when triage.extractor is %q", ExtractorOpenAI)
		}
		if c.OpenAI.PromptsPath == "" {
			return fmt.Errorf("openai.prompts_path is required")
		}
	case ExtractorLexical:
	default:
		return fmt.Errorf("triage.extractor must be %q or %q, got %q", ExtractorOpenAI, ExtractorLexical, c.Triage.Extractor)
	}

	switch c.Triage.ConversationStore {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("triage.conversation_store must be %q or %q, got %q", StoreSQLite, StoreMemory, c.Triage.ConversationStore)
	}

	if _, err := time.LoadLocation(c.Triage.Timezone); err != nil {
		return fmt.Errorf("triage.timezone: %w", err)
	}
	if c.Triage.ConversationTTL <= 0 {
		return fmt.Errorf("triage.conversation_ttl must be positive")
	}
	if c.Triage.MinConfidence <= c.Triage.ConfidenceFloor {
		return fmt.Errorf("triage.min_confidence must be greater than triage.confidence_floor")
	}

	if len(c.Lark.Chats) > 0 && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark.chats is set")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}
