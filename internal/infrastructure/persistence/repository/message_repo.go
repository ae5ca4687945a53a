package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
)

// MessageRepository implements port.MessageRepository
type MessageRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlite.DB, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an inbound message
func (r *MessageRepository) Create(ctx context.Context, msg *entity.InboundMessage) error {
	now := time.Now().UTC()
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO inbound_messages (id, user_id, user_role, text, status, received_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.UserRole, msg.Text, msg.Status, msg.ReceivedAt.UTC(), now,
	)
	if err != nil {
		r.logger.Error("Failed to create message", zap.String("message_id", msg.ID), zap.Error(err))
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// UpdateStatus updates the message status and error message
func (r *MessageRepository) UpdateStatus(ctx context.Context, id string, status entity.MessageStatus, errorMsg string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE inbound_messages SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errorMsg, time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Failed to update message status",
			zap.String("message_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("message %s: %w", id, port.ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of messages per status
func (r *MessageRepository) CountByStatus(ctx context.Context) (map[entity.MessageStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"n"`
	}
	if err := r.db.Executor(ctx).SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS n FROM inbound_messages GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	counts := make(map[entity.MessageStatus]int, len(rows))
	for _, row := range rows {
		counts[entity.MessageStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// Verify interface compliance
var _ port.MessageRepository = (*MessageRepository)(nil)
