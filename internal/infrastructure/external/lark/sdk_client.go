package lark

import (
	"context"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
	// BaseURL overrides the open platform endpoint, e.g. for Feishu or tests
	BaseURL string
	// Timeout bounds each API call; zero leaves the SDK default
	Timeout time.Duration
	// Chats maps each staff role to the chat_id of its group
	Chats map[entity.StaffRole]string
}

// SDKClient owns the Lark open platform client used by the messenger.
// Tenant tokens are cached by the SDK.
type SDKClient struct {
	client *lark.Client
}

func NewSDKClient(cfg Config, logger *zap.Logger) *SDKClient {
	opts := []lark.ClientOptionFunc{
		lark.WithEnableTokenCache(true),
		lark.WithLogger(sdkLogger{logger}),
		lark.WithLogLevel(larkcore.LogLevelWarn),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, lark.WithReqTimeout(cfg.Timeout))
	}

	return &SDKClient{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
	}
}

func (c *SDKClient) GetClient() *lark.Client {
	return c.client
}

// sdkLogger sends the SDK's own log lines to zap
type sdkLogger struct {
	logger *zap.Logger
}

func (l sdkLogger) Debug(_ context.Context, args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l sdkLogger) Info(_ context.Context, args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l sdkLogger) Warn(_ context.Context, args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l sdkLogger) Error(_ context.Context, args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

var _ larkcore.Logger = sdkLogger{}
