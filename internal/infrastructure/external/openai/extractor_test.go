package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

func loadTestPrompts(t *testing.T) *PromptConfig {
	t.Helper()
	prompts, err := LoadPrompts(filepath.Join("..", "..", "..", "..", "configs", "prompts.yaml"))
	require.NoError(t, err)
	return prompts
}

// chatServer answers every chat completion with content and records the request
func chatServer(t *testing.T, status int, content string, got *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testContext() entity.UserContext {
	return entity.UserContext{
		Profile:       entity.ResidentProfile{UserID: "r-101", RoomNumber: "B-12", Block: "B"},
		Today:         "2026-10-15",
		Weekday:       "Thursday",
		ActiveType:    entity.RequestGuest,
		AwaitingField: entity.FieldGuestName,
		KnownFields:   map[string]string{entity.FieldStartDate: "2026-10-16"},
	}
}

func TestExtractor_Extract(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := chatServer(t, http.StatusOK,
		`{"intent":"guest_request","entities":{"name":"Sam","visit_date":"2026-10-16","duration_days":null},"confidence":0.92,"requires_clarification":true,"missing_fields":["end_date"]}`,
		&req)

	x := NewExtractor(NewClient("test-key", srv.URL+"/v1"), "gpt-4o-mini", loadTestPrompts(t), 5*time.Second, zap.NewNop())
	got, err := x.Extract(context.Background(), "Sam is coming tomorrow", testContext())
	require.NoError(t, err)

	assert.Equal(t, entity.IntentGuest, got.Intent)
	assert.Equal(t, map[string]string{entity.FieldGuestName: "Sam", entity.FieldStartDate: "2026-10-16"}, got.Entities)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.Equal(t, []string{entity.FieldEndDate}, got.MissingFields)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	user := req.Messages[1].Content
	assert.Contains(t, user, "Today is Thursday, 2026-10-15.")
	assert.Contains(t, user, "room B-12")
	assert.Contains(t, user, "An open guest_request request is waiting for: guest_name.")
	assert.Contains(t, user, "start_date=2026-10-16;")
	assert.Contains(t, user, "leave_request: start_date, end_date, reason")
	assert.Contains(t, user, "Message: Sam is coming tomorrow")
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
}

func TestExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{name: "upstream error", status: http.StatusServiceUnavailable},
		{name: "prose reply", status: http.StatusOK, content: "I think they want a guest pass."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.content, nil)
			cfg := openai.DefaultConfig("test-key")
			cfg.BaseURL = srv.URL + "/v1"
			x := NewExtractor(openai.NewClientWithConfig(cfg), "gpt-4o-mini", loadTestPrompts(t), time.Second, zap.NewNop())

			_, err := x.Extract(context.Background(), "hello", entity.UserContext{Today: "2026-10-15"})
			assert.Error(t, err)
		})
	}
}

func TestParsePrompts(t *testing.T) {
	_, err := ParsePrompts([]byte("extraction:\n  system: hi\n"))
	assert.Error(t, err, "a user template is required")

	_, err = ParsePrompts([]byte("extraction:\n  system: hi\n  user_template: \"{{.Text\"\n"))
	assert.Error(t, err, "the template must parse")

	p, err := ParsePrompts([]byte("extraction:\n  temperature: 0.2\n  system: hi\n  user_template: \"{{.Text}}\"\n"))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, float64(p.Extraction.Temperature), 1e-6)
	assert.Equal(t, defaultMaxTokens, p.Extraction.MaxTokens)

	_, err = ParsePrompts([]byte("extraction:\n  temperature: 3\n  system: hi\n  user_template: x\n"))
	assert.Error(t, err, "temperature is bounded")

	p, err = ParsePrompts([]byte("extraction:\n  system: hi\n  user_template: \"{{join .Fields \\\", \\\"}} / {{.Missing}}\"\n"))
	require.NoError(t, err)
	assert.InDelta(t, defaultTemperature, float64(p.Extraction.Temperature), 1e-6)
	out, err := p.Render(map[string]interface{}{"Fields": []string{"guest_name", "start_date"}})
	require.NoError(t, err)
	assert.Equal(t, "guest_name, start_date / <no value>", out)

	_, err = (&PromptConfig{}).Render(nil)
	assert.Error(t, err)
}
