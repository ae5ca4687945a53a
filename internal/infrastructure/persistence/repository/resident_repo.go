package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
)

// ResidentRepository implements port.ResidentRepository
type ResidentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewResidentRepository creates a new resident repository
func NewResidentRepository(db *sqlite.DB, logger *zap.Logger) *ResidentRepository {
	return &ResidentRepository{
		db:     db,
		logger: logger,
	}
}

// GetProfile returns port.ErrNotFound for unknown residents
func (r *ResidentRepository) GetProfile(ctx context.Context, userID string) (*entity.ResidentProfile, error) {
	var p entity.ResidentProfile
	err := r.db.Executor(ctx).GetContext(ctx, &p, `
		SELECT user_id, name, room_number, block, timezone
		FROM residents WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get resident profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}
	return &p, nil
}

// Upsert creates or replaces a resident profile
func (r *ResidentRepository) Upsert(ctx context.Context, p *entity.ResidentProfile) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO residents (user_id, name, room_number, block, timezone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			room_number = excluded.room_number,
			block = excluded.block,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.RoomNumber, p.Block, p.Timezone, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert resident", zap.String("user_id", p.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert resident: %w", err)
	}
	return nil
}

// Violations returns the times of the resident's violations since the given time
func (r *ResidentRepository) Violations(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Executor(ctx).SelectContext(ctx, &times, `
		SELECT occurred_at FROM resident_violations
		WHERE user_id = ? AND occurred_at >= ?
		ORDER BY occurred_at`, userID, since.UTC())
	if err != nil {
		r.logger.Error("Failed to list violations", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return times, nil
}

// AddViolation records a conduct violation
func (r *ResidentRepository) AddViolation(ctx context.Context, userID, description string, at time.Time) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO resident_violations (user_id, description, occurred_at) VALUES (?, ?, ?)`,
		userID, description, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to add violation: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ResidentRepository = (*ResidentRepository)(nil)
