package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// AuditService is the append-only decision trail
type AuditService interface {
	// Record appends one entry. ID, timestamp and coarse decision are filled in.
	Record(ctx context.Context, entry *entity.AuditEntry) error
	List(ctx context.Context, filter port.AuditFilter) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
	clock     func() time.Time
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
		clock:     time.Now,
	}
}

// Record appends an audit entry
func (s *auditServiceImpl) Record(ctx context.Context, entry *entity.AuditEntry) error {
	if entry == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if entry.Code == "" {
		return fmt.Errorf("audit entry needs a decision code")
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	entry.Decision = entry.Code.Decision()
	if entry.RuleIDs == nil {
		entry.RuleIDs = []string{}
	}

	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry",
			"error", err,
			"correlation_id", entry.CorrelationID,
			"code", entry.Code,
		)
		return fmt.Errorf("append audit entry: %w", err)
	}

	s.logger.Info("Audit entry recorded",
		"correlation_id", entry.CorrelationID,
		"actor_id", entry.ActorID,
		"decision", entry.Decision,
		"code", entry.Code,
	)
	return nil
}

// List returns audit entries matching filter, oldest first
func (s *auditServiceImpl) List(ctx context.Context, filter port.AuditFilter) ([]*entity.AuditEntry, error) {
	entries, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list audit entries", "error", err, "actor_id", filter.ActorID)
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
