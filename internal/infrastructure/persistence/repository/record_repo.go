package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
)

const recordColumns = `id, request_type, requester_id, room_number, guest_name, start_date,
	end_date, description, location, urgency, status, auto_approved, approval_reason,
	escalated_to, work_order_id, correlation_id, created_at`

// RecordRepository implements port.RecordRepository
type RecordRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *sqlite.DB, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the record and its creation event in one transaction
func (r *RecordRepository) Create(ctx context.Context, rec *entity.RequestRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		result, err := sqlx.NamedExecContext(ctx, exec, `
			INSERT INTO request_records (
				request_type, requester_id, room_number, guest_name, start_date,
				end_date, description, location, urgency, status, auto_approved,
				approval_reason, escalated_to, work_order_id, correlation_id, created_at
			) VALUES (
				:request_type, :requester_id, :room_number, :guest_name, :start_date,
				:end_date, :description, :location, :urgency, :status, :auto_approved,
				:approval_reason, :escalated_to, :work_order_id, :correlation_id, :created_at
			)`, rec)
		if err != nil {
			r.logger.Error("Failed to create request record",
				zap.String("type", string(rec.Type)),
				zap.String("requester_id", rec.RequesterID),
				zap.Error(err))
			return fmt.Errorf("failed to create record: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		note := rec.ApprovalReason
		if rec.EscalatedTo != "" {
			note = "escalated to " + rec.EscalatedTo + ": " + note
		}
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO request_events (record_id, event_type, status, actor_id, note, correlation_id, created_at)
			VALUES (?, 'created', ?, ?, ?, ?, ?)`,
			id, rec.Status, rec.RequesterID, note, rec.CorrelationID, rec.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to create record event", zap.Int64("record_id", id), zap.Error(err))
			return fmt.Errorf("failed to create record event: %w", err)
		}

		rec.ID = id
		return nil
	})
}

// GetByID retrieves a record by ID
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*entity.RequestRecord, error) {
	var rec entity.RequestRecord
	err := r.db.Executor(ctx).GetContext(ctx, &rec,
		`SELECT `+recordColumns+` FROM request_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get record", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the requester's records created since the given time, newest first
func (r *RecordRepository) ListRecent(ctx context.Context, requesterID string, since time.Time) ([]*entity.RequestRecord, error) {
	var records []*entity.RequestRecord
	err := r.db.Executor(ctx).SelectContext(ctx, &records, `
		SELECT `+recordColumns+` FROM request_records
		WHERE requester_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC`,
		requesterID, since.UTC())
	if err != nil {
		r.logger.Error("Failed to list recent records", zap.String("requester_id", requesterID), zap.Error(err))
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// RecordEvent is one lifecycle row of a record
type RecordEvent struct {
	ID            int64     `db:"id"`
	RecordID      int64     `db:"record_id"`
	EventType     string    `db:"event_type"`
	Status        string    `db:"status"`
	ActorID       string    `db:"actor_id"`
	Note          string    `db:"note"`
	CorrelationID string    `db:"correlation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Events returns the lifecycle events of a record, oldest first
func (r *RecordRepository) Events(ctx context.Context, recordID int64) ([]RecordEvent, error) {
	var events []RecordEvent
	err := r.db.Executor(ctx).SelectContext(ctx, &events, `
		SELECT id, record_id, event_type, status, actor_id, note, correlation_id, created_at
		FROM request_events WHERE record_id = ? ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list record events: %w", err)
	}
	return events, nil
}

// Verify interface compliance
var _ port.RecordRepository = (*RecordRepository)(nil)
