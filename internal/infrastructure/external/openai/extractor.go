package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// Extractor implements port.EntityExtractor with an OpenAI chat model
type Extractor struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates an OpenAI client; baseURL may be empty
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewExtractor creates a new OpenAI entity extractor
func NewExtractor(client *openai.Client, model string, prompts *PromptConfig, timeout time.Duration, logger *zap.Logger) *Extractor {
	return &Extractor{
		client:  client,
		model:   model,
		prompts: prompts,
		timeout: timeout,
		logger:  logger,
	}
}

// promptData is what the user template sees
type promptData struct {
	Text           string
	Today          string
	Weekday        string
	Profile        entity.ResidentProfile
	ActiveType     entity.RequestType
	AwaitingField  string
	KnownFields    map[string]string
	RecentTurns    []entity.IntentRecord
	RecentRequests []*entity.RequestRecord
	RequiredFields map[entity.RequestType]string
}

// Extract asks the model for the intent and entities of text
func (x *Extractor) Extract(ctx context.Context, text string, uc entity.UserContext) (entity.IntentResult, error) {
	required := make(map[entity.RequestType]string)
	for _, t := range entity.RequestTypes() {
		required[t] = strings.Join(entity.RequiredFields(t), ", ")
	}

	prompt, err := x.prompts.Render(promptData{
		Text:           text,
		Today:          uc.Today,
		Weekday:        uc.Weekday,
		Profile:        uc.Profile,
		ActiveType:     uc.ActiveType,
		AwaitingField:  uc.AwaitingField,
		KnownFields:    uc.KnownFields,
		RecentTurns:    uc.RecentTurns,
		RecentRequests: uc.RecentRequests,
		RequiredFields: required,
	})
	if err != nil {
		return entity.IntentResult{}, fmt.Errorf("failed to render prompt: %w", err)
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       x.model,
		Temperature: x.prompts.Extraction.Temperature,
		MaxTokens:   x.prompts.Extraction.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: x.prompts.Extraction.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		x.logger.Error("OpenAI API call failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return entity.IntentResult{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return entity.IntentResult{}, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	result, err := ai.ParseIntentJSON(content)
	if err != nil {
		x.logger.Error("Failed to parse OpenAI response",
			zap.Error(err),
			zap.String("content", content))
		return entity.IntentResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	x.logger.Info("Entities extracted",
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("entities", len(result.Entities)),
		zap.Strings("missing", result.MissingFields),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

// Verify interface compliance
var _ port.EntityExtractor = (*Extractor)(nil)
