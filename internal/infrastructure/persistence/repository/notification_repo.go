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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create logs one delivery attempt
func (r *NotificationRepository) Create(ctx context.Context, d *entity.NotificationDelivery) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.CreatedAt = d.CreatedAt.UTC()

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO notification_deliveries (
			event_id, kind, channel, recipient, status, error_message, correlation_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.EventID, d.Kind, d.Channel, d.Recipient, d.Status, d.ErrorMessage, d.CorrelationID, d.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification delivery",
			zap.String("event_id", d.EventID),
			zap.String("channel", d.Channel),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = id
	return nil
}

// ListByCorrelationID returns the delivery attempts of one message, oldest first
func (r *NotificationRepository) ListByCorrelationID(ctx context.Context, correlationID string) ([]*entity.NotificationDelivery, error) {
	var out []*entity.NotificationDelivery
	err := r.db.Executor(ctx).SelectContext(ctx, &out, `
		SELECT id, event_id, kind, channel, recipient, status, error_message, correlation_id, created_at
		FROM notification_deliveries WHERE correlation_id = ? ORDER BY id`, correlationID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("correlation_id", correlationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// CountByStatus returns delivery attempts per status
func (r *NotificationRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"n"`
	}
	if err := r.db.Executor(ctx).SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS n FROM notification_deliveries GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
