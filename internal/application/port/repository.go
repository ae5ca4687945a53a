package port

import (
	"context"
	"errors"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("not found")

// RecordRepository persists accepted and escalated requests
type RecordRepository interface {
	// Create inserts the record and its creation event, setting rec.ID
	Create(ctx context.Context, rec *entity.RequestRecord) error
	GetByID(ctx context.Context, id int64) (*entity.RequestRecord, error)
	ListRecent(ctx context.Context, requesterID string, since time.Time) ([]*entity.RequestRecord, error)
}

// AuditFilter narrows an audit listing; zero values match everything
type AuditFilter struct {
	ActorID       string
	CorrelationID string
	Since         time.Time
	Limit         int
}

// AuditRepository is the append-only audit trail
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditEntry, error)
}

// ResidentRepository looks up requester profiles and conduct history
type ResidentRepository interface {
	GetProfile(ctx context.Context, userID string) (*entity.ResidentProfile, error)
	Violations(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
}

// MessageRepository tracks inbound messages through processing
type MessageRepository interface {
	Create(ctx context.Context, msg *entity.InboundMessage) error
	UpdateStatus(ctx context.Context, id string, status entity.MessageStatus, errorMsg string) error
}

// NotificationRepository logs notification delivery attempts
type NotificationRepository interface {
	Create(ctx context.Context, delivery *entity.NotificationDelivery) error
	ListByCorrelationID(ctx context.Context, correlationID string) ([]*entity.NotificationDelivery, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
