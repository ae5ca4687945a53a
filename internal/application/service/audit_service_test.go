package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

type failingAuditRepo struct {
	err error
}

func (f failingAuditRepo) Append(context.Context, *entity.AuditEntry) error { return f.err }

func (f failingAuditRepo) List(context.Context, port.AuditFilter) ([]*entity.AuditEntry, error) {
	return nil, f.err
}

func TestAuditService_RecordFillsDerivedFields(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nopLogger{}).(*auditServiceImpl)
	fixed := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	tests := []struct {
		code entity.AuditCode
		want entity.AuditDecision
	}{
		{entity.CodeAutoApproved, entity.AuditApproved},
		{entity.CodeEscalated, entity.AuditEscalated},
		{entity.CodePolicyRejected, entity.AuditRejected},
		{entity.CodeValidationFailed, entity.AuditRejected},
		{entity.CodeExtractionFailed, entity.AuditFailed},
		{entity.CodePersistenceFailed, entity.AuditFailed},
		{entity.CodeSlotValueRejected, entity.AuditProcessed},
		{entity.CodeCancelled, entity.AuditProcessed},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			entry := &entity.AuditEntry{CorrelationID: "corr-1", ActorID: residentID, Code: tt.code}
			require.NoError(t, svc.Record(context.Background(), entry))

			assert.NotEmpty(t, entry.ID)
			assert.Equal(t, fixed, entry.CreatedAt)
			assert.Equal(t, tt.want, entry.Decision)
			assert.NotNil(t, entry.RuleIDs)
		})
	}
	assert.Len(t, repo.entries, len(tests))
}

func TestAuditService_RecordKeepsCallerValues(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, nopLogger{})
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	entry := &entity.AuditEntry{
		ID:        "audit-1",
		Code:      entity.CodeEscalated,
		Decision:  entity.AuditApproved,
		RuleIDs:   []string{"leave_duration_limit"},
		CreatedAt: at,
	}
	require.NoError(t, svc.Record(context.Background(), entry))

	assert.Equal(t, "audit-1", entry.ID)
	assert.Equal(t, at, entry.CreatedAt)
	assert.Equal(t, entity.AuditEscalated, entry.Decision, "decision always follows the code")
	assert.Equal(t, []string{"leave_duration_limit"}, entry.RuleIDs)
}

func TestAuditService_RecordErrors(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{}, nopLogger{})
	assert.Error(t, svc.Record(context.Background(), nil))
	assert.Error(t, svc.Record(context.Background(), &entity.AuditEntry{}))

	boom := errors.New("disk full")
	failing := NewAuditService(failingAuditRepo{err: boom}, nopLogger{})
	err := failing.Record(context.Background(), &entity.AuditEntry{Code: entity.CodeCancelled})
	assert.ErrorIs(t, err, boom)

	_, err = failing.List(context.Background(), port.AuditFilter{})
	assert.ErrorIs(t, err, boom)
}
