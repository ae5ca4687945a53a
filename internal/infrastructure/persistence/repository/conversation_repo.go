package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
)

// ConversationRepository is a port.ConversationStore that survives restarts.
// Contexts are stored as JSON; idle ones are treated as absent after the TTL.
type ConversationRepository struct {
	db     *sqlite.DB
	ttl    time.Duration
	clock  func() time.Time
	logger *zap.Logger
}

// NewConversationRepository creates a SQLite backed conversation store
func NewConversationRepository(db *sqlite.DB, ttl time.Duration, logger *zap.Logger) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		ttl:    ttl,
		clock:  time.Now,
		logger: logger,
	}
}

// Get loads a context, deleting it instead when it has expired
func (r *ConversationRepository) Get(ctx context.Context, conversationID string) (*entity.ConversationContext, bool, error) {
	var state string
	err := r.db.Executor(ctx).GetContext(ctx, &state,
		`SELECT state FROM conversations WHERE conversation_id = ?`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to load conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, false, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv entity.ConversationContext
	if err := json.Unmarshal([]byte(state), &conv); err != nil {
		return nil, false, fmt.Errorf("failed to decode conversation %s: %w", conversationID, err)
	}
	if conv.Sessions == nil {
		conv.Sessions = make(map[entity.RequestType]*entity.DialogueSession)
	}

	if conv.Expired(r.clock(), r.ttl) {
		if err := r.Delete(ctx, conversationID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return &conv, true, nil
}

// Put stores a context, replacing any previous state
func (r *ConversationRepository) Put(ctx context.Context, conv *entity.ConversationContext) error {
	if conv == nil || conv.ConversationID == "" {
		return fmt.Errorf("conversation needs an id")
	}
	state, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO conversations (conversation_id, user_id, user_role, state, last_activity_ms)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			state = excluded.state,
			last_activity_ms = excluded.last_activity_ms`,
		conv.ConversationID, conv.UserID, conv.UserRole, string(state), conv.LastActivity.UnixMilli(),
	)
	if err != nil {
		r.logger.Error("Failed to save conversation", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Delete removes a context
func (r *ConversationRepository) Delete(ctx context.Context, conversationID string) error {
	if _, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM conversations WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// Expire deletes every context idle for longer than the TTL at now
func (r *ConversationRepository) Expire(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-r.ttl).UnixMilli()
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM conversations WHERE last_activity_ms < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire conversations: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired conversations: %w", err)
	}
	return int(n), nil
}

// Verify interface compliance
var _ port.ConversationStore = (*ConversationRepository)(nil)
