package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/database"
)

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "triage.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(context.Background(), filepath.Join("..", "..", "..", "..", "migrations")))

	return sqlite.NewDB(db.DB, logger)
}

func TestRecordRepository_CreateWritesEvent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	rec := &entity.RequestRecord{
		Type:           entity.RequestLeave,
		RequesterID:    "r-101",
		RoomNumber:     "B-12",
		StartDate:      "2026-10-16",
		EndDate:        "2026-10-21",
		Description:    "going home",
		Status:         entity.RecordPending,
		ApprovalReason: "leave longer than 2 days",
		EscalatedTo:    string(entity.StaffWarden),
		CorrelationID:  "corr-1",
		CreatedAt:      testNow,
	}
	require.NoError(t, repo.Create(ctx, rec))
	require.NotZero(t, rec.ID)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestLeave, got.Type)
	assert.Equal(t, entity.RecordPending, got.Status)
	assert.Equal(t, "warden", got.EscalatedTo)
	assert.True(t, got.CreatedAt.Equal(testNow))

	events, err := repo.Events(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "created", events[0].EventType)
	assert.Equal(t, "pending", events[0].Status)
	assert.Contains(t, events[0].Note, "escalated to warden")

	_, err = repo.GetByID(ctx, rec.ID+100)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestRecordRepository_ListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	for i, at := range []time.Time{testNow.AddDate(0, 0, -40), testNow.AddDate(0, 0, -3), testNow} {
		require.NoError(t, repo.Create(ctx, &entity.RequestRecord{
			Type:          entity.RequestRoomCleaning,
			RequesterID:   "r-101",
			RoomNumber:    "B-12",
			Status:        entity.RecordApproved,
			AutoApproved:  true,
			CorrelationID: "corr-" + string(rune('a'+i)),
			CreatedAt:     at,
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.RequestRecord{
		Type: entity.RequestRoomCleaning, RequesterID: "r-202", Status: entity.RecordApproved,
		CorrelationID: "corr-x", CreatedAt: testNow,
	}))

	recent, err := repo.ListRecent(ctx, "r-101", testNow.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt), "newest first")
	assert.True(t, recent[0].AutoApproved)
}

func TestRecordRepository_CreateRollsBackInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRecordRepository(db, zap.NewNop())
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, &entity.RequestRecord{
			Type: entity.RequestGuest, RequesterID: "r-101", Status: entity.RecordApproved,
			CorrelationID: "corr-1", CreatedAt: testNow,
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	recent, err := repo.ListRecent(ctx, "r-101", testNow.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestAuditRepository_AppendOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()

	verdict := &entity.ApprovalVerdict{
		Decision:       entity.DecisionAutoApproved,
		Approved:       true,
		Reasoning:      "short leave",
		RulesEvaluated: []string{"date_not_in_past", "leave_duration_limit"},
		Confidence:     0.95,
	}
	first := &entity.AuditEntry{
		ID: "a-1", CorrelationID: "corr-1", ActorID: "r-101", ActorRole: entity.RoleResident,
		RequestType: entity.RequestLeave, Decision: entity.AuditApproved, Code: entity.CodeAutoApproved,
		RuleIDs: verdict.RulesEvaluated, Fields: map[string]string{"start_date": "2026-10-16"},
		Verdict: verdict, Confidence: 0.95, RecordID: 7, CreatedAt: testNow,
	}
	second := &entity.AuditEntry{
		ID: "a-2", CorrelationID: "corr-2", ActorID: "r-101", Decision: entity.AuditFailed,
		Code: entity.CodeExtractionFailed, CreatedAt: testNow.Add(time.Minute),
	}
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	all, err := repo.List(ctx, port.AuditFilter{ActorID: "r-101"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a-1", all[0].ID)
	assert.Equal(t, []string{"date_not_in_past", "leave_duration_limit"}, all[0].RuleIDs)
	assert.Equal(t, "2026-10-16", all[0].Fields["start_date"])
	require.NotNil(t, all[0].Verdict)
	assert.Equal(t, entity.DecisionAutoApproved, all[0].Verdict.Decision)
	assert.Equal(t, int64(7), all[0].RecordID)
	assert.Nil(t, all[1].Verdict)
	assert.Empty(t, all[1].RuleIDs)

	byCorr, err := repo.List(ctx, port.AuditFilter{CorrelationID: "corr-2"})
	require.NoError(t, err)
	require.Len(t, byCorr, 1)
	assert.Equal(t, entity.CodeExtractionFailed, byCorr[0].Code)

	limited, err := repo.List(ctx, port.AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = db.ExecContext(ctx, `UPDATE audit_entries SET code = 'cancelled' WHERE id = 'a-1'`)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM audit_entries WHERE id = 'a-1'`)
	assert.Error(t, err)
}

func TestConversationRepository_RoundTripAndExpiry(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db, 24*time.Hour, zap.NewNop())
	repo.clock = func() time.Time { return testNow }
	ctx := context.Background()

	conv := entity.NewConversationContext("r-101", entity.RoleResident, testNow)
	s := conv.OpenSession(entity.RequestGuest, testNow)
	s.Fields[entity.FieldGuestName] = "Sam"
	s.Pending = []string{entity.FieldStartDate, entity.FieldEndDate}
	require.NoError(t, repo.Put(ctx, conv))

	got, ok, err := repo.Get(ctx, conv.ConversationID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sam", got.Session(entity.RequestGuest).Fields[entity.FieldGuestName])
	assert.Equal(t, entity.FieldStartDate, got.ActiveSession().AwaitingField())

	stale := entity.NewConversationContext("r-202", entity.RoleResident, testNow.Add(-25*time.Hour))
	require.NoError(t, repo.Put(ctx, stale))

	n, err := repo.Expire(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err = repo.Get(ctx, stale.ConversationID)
	require.NoError(t, err)
	assert.False(t, ok)

	repo.clock = func() time.Time { return testNow.Add(24*time.Hour + time.Second) }
	_, ok, err = repo.Get(ctx, conv.ConversationID)
	require.NoError(t, err)
	assert.False(t, ok, "an idle context is absent after the ttl")

	assert.Error(t, repo.Put(ctx, &entity.ConversationContext{}))
}

func TestResidentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewResidentRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := repo.GetProfile(ctx, "r-101")
	assert.ErrorIs(t, err, port.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &entity.ResidentProfile{UserID: "r-101", Name: "Asha", RoomNumber: "B-12", Block: "B"}))
	require.NoError(t, repo.Upsert(ctx, &entity.ResidentProfile{UserID: "r-101", Name: "Asha", RoomNumber: "C-04", Block: "C", Timezone: "Asia/Kolkata"}))

	p, err := repo.GetProfile(ctx, "r-101")
	require.NoError(t, err)
	assert.Equal(t, "C-04", p.RoomNumber)
	assert.Equal(t, "Asia/Kolkata", p.Timezone)

	require.NoError(t, repo.AddViolation(ctx, "r-101", "late return", testNow.AddDate(0, 0, -60)))
	require.NoError(t, repo.AddViolation(ctx, "r-101", "noise", testNow.AddDate(0, 0, -5)))

	since, err := repo.Violations(ctx, "r-101", testNow.AddDate(0, 0, -31))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.True(t, since[0].Equal(testNow.AddDate(0, 0, -5)))
}

func TestMessageAndNotificationRepositories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	messages := NewMessageRepository(db, zap.NewNop())
	msg := &entity.InboundMessage{
		ID: "m-1", UserID: "r-101", UserRole: entity.RoleResident,
		Text: "my fan is broken", Status: entity.MessageProcessing, ReceivedAt: testNow,
	}
	require.NoError(t, messages.Create(ctx, msg))
	require.NoError(t, messages.UpdateStatus(ctx, "m-1", entity.MessageFailed, "extraction_failed"))
	assert.ErrorIs(t, messages.UpdateStatus(ctx, "m-404", entity.MessageProcessed, ""), port.ErrNotFound)

	counts, err := messages.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[entity.MessageFailed])

	notifications := NewNotificationRepository(db, zap.NewNop())
	for _, status := range []string{entity.NotificationStatusFailed, entity.NotificationStatusSent} {
		require.NoError(t, notifications.Create(ctx, &entity.NotificationDelivery{
			EventID: "e-1", Kind: "maintenance.scheduled", Channel: "lark",
			Recipient: "maintenance", Status: status, CorrelationID: "corr-1",
		}))
	}

	deliveries, err := notifications.ListByCorrelationID(ctx, "corr-1")
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, entity.NotificationStatusFailed, deliveries[0].Status)
	assert.NotZero(t, deliveries[1].ID)

	stats, err := notifications.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"FAILED": 1, "SENT": 1}, stats)
}
