package config

import (
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/container"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	loc, err := time.LoadLocation(c.Triage.Timezone)
	if err != nil {
		loc = time.UTC
	}

	chats := make(map[entity.StaffRole]string, len(c.Lark.Chats))
	for role, chatID := range c.Lark.Chats {
		chats[entity.StaffRole(role)] = chatID
	}

	gate := ai.DefaultConfidenceGate()
	gate.MinConfidence = c.Triage.MinConfidence
	gate.Floor = c.Triage.ConfidenceFloor

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Extractor: container.ExtractorConfig{
			Backend:     c.Triage.Extractor,
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
			Timeout:   c.Lark.Timeout,
			Chats:     chats,
		},
		Triage: container.TriageConfig{
			RulesPath:         c.Triage.RulesPath,
			Location:          loc,
			ConversationStore: c.Triage.ConversationStore,
			ConversationTTL:   c.Triage.ConversationTTL,
			ExpiryInterval:    c.Triage.ExpiryInterval,
			Gate:              gate,
			Policy:            c.Triage.Policy,
		},
		Dispatcher: container.DispatcherConfig{
			Workers:   c.Dispatcher.Workers,
			QueueSize: c.Dispatcher.QueueSize,
		},
	}
}
