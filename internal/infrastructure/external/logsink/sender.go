// Package logsink provides a staff notification channel that writes to the log.
package logsink

import (
	"context"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
)

// Sender implements port.MessageSender by logging each message.
// It is the fallback channel when no chat integration is configured.
type Sender struct {
	logger *zap.Logger
}

// NewSender creates a log-backed sender
func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger.Named("staff_chat")}
}

// Name identifies the channel in delivery logs
func (s *Sender) Name() string {
	return "log"
}

// Send logs msg at info level
func (s *Sender) Send(ctx context.Context, msg port.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info(msg.Title,
		zap.String("role", string(msg.Role)),
		zap.Strings("lines", msg.Lines))
	return nil
}

var _ port.MessageSender = (*Sender)(nil)
