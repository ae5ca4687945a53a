package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

var asOf = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultPolicy())
	require.NoError(t, err)
	return e
}

func leave(start, end string) Input {
	return Input{
		Type:        entity.RequestLeave,
		RequesterID: "r-101",
		Fields: map[string]string{
			entity.FieldStartDate: start,
			entity.FieldEndDate:   end,
			entity.FieldReason:    "family function",
		},
		AsOf:     asOf,
		Location: time.UTC,
	}
}

func TestEvaluate_LeaveWithinLimitIsApproved(t *testing.T) {
	e := newEngine(t)

	for _, end := range []string{"2026-10-16", "2026-10-17", "2026-10-18"} {
		t.Run(end, func(t *testing.T) {
			v, err := e.Evaluate(leave("2026-10-16", end))
			require.NoError(t, err)

			assert.True(t, v.Approved)
			assert.Equal(t, entity.DecisionAutoApproved, v.Decision)
			assert.Nil(t, v.Escalation)
			assert.NoError(t, v.Validate())
		})
	}
}

func TestEvaluate_LongLeaveIsEscalatedToWarden(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name       string
		violations []time.Time
	}{
		{"clean record", nil},
		{"recent violation", []time.Time{asOf.AddDate(0, 0, -3)}},
		{"old violation", []time.Time{asOf.AddDate(0, 0, -90)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := leave("2026-10-16", "2026-10-21")
			in.History.Violations = tt.violations

			v, err := e.Evaluate(in)
			require.NoError(t, err)

			assert.False(t, v.Approved)
			assert.Equal(t, entity.DecisionEscalated, v.Decision)
			require.NotNil(t, v.Escalation)
			assert.Equal(t, entity.StaffWarden, v.Escalation.Role)
			assert.Equal(t, entity.PriorityNormal, v.Escalation.Priority)
			assert.Equal(t, ReasonDurationOrViolation, v.Escalation.ReasonCode)
			assert.Contains(t, v.RulesFired, RuleLeaveDurationLimit)
			assert.NoError(t, v.Validate())
		})
	}
}

func TestEvaluate_ShortLeaveWithRecentViolationIsEscalated(t *testing.T) {
	in := leave("2026-10-16", "2026-10-17")
	in.History.Violations = []time.Time{asOf.AddDate(0, 0, -30)}

	v, err := newEngine(t).Evaluate(in)
	require.NoError(t, err)

	assert.Equal(t, entity.DecisionEscalated, v.Decision)
	assert.Equal(t, []string{RuleStudentRecordCheck}, v.RulesFired)
	assert.Contains(t, v.Reasoning, "violation")
}

func TestEvaluate_ListsEveryRuleEvaluated(t *testing.T) {
	v, err := newEngine(t).Evaluate(leave("2026-10-16", "2026-10-17"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		RuleDateNotInPast,
		RuleEndNotBeforeStart,
		RuleDurationWithinCap,
		RuleLeaveDurationLimit,
		RuleStudentRecordCheck,
	}, v.RulesEvaluated)
	assert.Empty(t, v.RulesFired)
}

func TestEvaluate_ValidationRejects(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		start string
		end   string
		rule  string
	}{
		{"start in the past", "2026-10-14", "2026-10-16", RuleDateNotInPast},
		{"end before start", "2026-10-20", "2026-10-18", RuleEndNotBeforeStart},
		{"over the hard cap", "2026-10-16", "2026-11-30", RuleDurationWithinCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Evaluate(leave(tt.start, tt.end))
			require.NoError(t, err)

			assert.Equal(t, entity.DecisionRejected, v.Decision)
			assert.Equal(t, tt.rule, v.FailedValidation)
			assert.Nil(t, v.Escalation)
			assert.NotContains(t, v.RulesEvaluated, RuleLeaveDurationLimit)
			assert.NoError(t, v.Validate())
		})
	}
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	e := newEngine(t)
	in := leave("2026-10-16", "2026-10-25")
	in.History.Violations = []time.Time{asOf.AddDate(0, 0, -2)}

	first, err := e.Evaluate(in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Evaluate(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvaluate_DayCountUsesRequesterZone(t *testing.T) {
	// 20:00 UTC on the 15th is already the 16th in UTC+05:30
	ist := time.FixedZone("IST", 5*3600+1800)
	in := leave("2026-10-16", "2026-10-18")
	in.AsOf = time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	in.Location = ist

	v, err := newEngine(t).Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, entity.DecisionAutoApproved, v.Decision)

	// a zoned end timestamp is converted before counting days
	in.Fields[entity.FieldEndDate] = "2026-10-17T20:00:00Z"
	v, err = newEngine(t).Evaluate(in)
	require.NoError(t, err)
	assert.Contains(t, v.Reasoning, "2 days")
}

func TestEvaluate_Guest(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name       string
		end        string
		violations []time.Time
		decision   entity.Decision
		priority   entity.Priority
	}{
		{"same day visit", "2026-10-16", nil, entity.DecisionAutoApproved, ""},
		{"one night", "2026-10-17", nil, entity.DecisionAutoApproved, ""},
		{"two nights", "2026-10-18", nil, entity.DecisionEscalated, entity.PriorityNormal},
		{"violation", "2026-10-16", []time.Time{asOf.AddDate(0, 0, -1)}, entity.DecisionEscalated, entity.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Evaluate(Input{
				Type:        entity.RequestGuest,
				RequesterID: "r-101",
				Fields: map[string]string{
					entity.FieldGuestName: "Sam",
					entity.FieldStartDate: "2026-10-16",
					entity.FieldEndDate:   tt.end,
				},
				History: entity.RequesterHistory{Violations: tt.violations},
				AsOf:    asOf,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.decision, v.Decision)
			if tt.priority != "" {
				require.NotNil(t, v.Escalation)
				assert.Equal(t, entity.StaffWarden, v.Escalation.Role)
				assert.Equal(t, tt.priority, v.Escalation.Priority)
			}
		})
	}
}

func TestEvaluate_MaintenanceIsAlwaysScheduled(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		description string
		urgency     string
		priority    entity.Priority
		scheduled   string
	}{
		{"the tap is broken", entity.UrgencyHigh, entity.PriorityUrgent, "2026-10-15"},
		{"water leak near the door", entity.UrgencyHigh, entity.PriorityUrgent, "2026-10-15"},
		{"there is an issue with the fan", entity.UrgencyMedium, entity.PriorityMedium, "2026-10-16"},
		{"light flickers sometimes", entity.UrgencyLow, entity.PriorityMedium, "2026-10-16"},
		{"leaking pipe", entity.UrgencyLow, entity.PriorityMedium, "2026-10-16"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			v, err := e.Evaluate(Input{
				Type:        entity.RequestMaintenance,
				RequesterID: "r-101",
				Fields: map[string]string{
					entity.FieldProblemDescription: tt.description,
					entity.FieldLocation:           "room 101",
				},
				History: entity.RequesterHistory{Violations: []time.Time{asOf}},
				AsOf:    asOf,
			})
			require.NoError(t, err)

			assert.Equal(t, entity.DecisionAutoApproved, v.Decision)
			require.NotNil(t, v.Schedule)
			assert.Equal(t, "WO-20261015-r-101", v.Schedule.WorkOrderID)
			assert.Equal(t, tt.urgency, v.Schedule.Urgency)
			assert.Equal(t, tt.priority, v.Schedule.Priority)
			assert.Equal(t, tt.scheduled, v.Schedule.ScheduledFor)
			assert.Equal(t, []string{RuleMaintenanceSchedule, RuleMaintenanceUrgency}, v.RulesFired)
		})
	}
}

func TestEvaluate_RoomCleaning(t *testing.T) {
	v, err := newEngine(t).Evaluate(Input{
		Type:        entity.RequestRoomCleaning,
		RequesterID: "r-7",
		Fields:      map[string]string{entity.FieldRoomNumber: "B-12"},
		AsOf:        asOf,
	})
	require.NoError(t, err)

	assert.True(t, v.Approved)
	assert.Equal(t, []string{RuleRegularCleaningSchedule}, v.RulesEvaluated)
	require.NotNil(t, v.Schedule)
	assert.Equal(t, "2026-10-16", v.Schedule.ScheduledFor)
}

func TestEvaluate_UnknownType(t *testing.T) {
	_, err := newEngine(t).Evaluate(Input{Type: entity.RequestType("parking"), AsOf: asOf})
	assert.Error(t, err)
}

func TestNewEngineWithRules_RejectsBadExpressions(t *testing.T) {
	_, err := NewEngineWithRules(DefaultPolicy(), []Rule{{ID: "bad", Applies: dated, Kind: KindGuard, Expr: "days +"}})
	assert.Error(t, err)

	_, err = NewEngineWithRules(DefaultPolicy(), []Rule{{ID: "not_bool", Applies: dated, Kind: KindGuard, Expr: "days + 1"}})
	assert.Error(t, err)

	_, err = NewEngineWithRules(DefaultPolicy(), []Rule{{ID: "empty", Applies: dated, Kind: KindGuard}})
	assert.Error(t, err)
}

func TestNewEngine_FillsPolicyDefaults(t *testing.T) {
	e, err := NewEngine(Policy{MaxLeaveDays: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, e.Policy().MaxLeaveDays)
	assert.Equal(t, 1, e.Policy().MaxGuestNights)
	assert.Equal(t, 30, e.Policy().MaxDurationDays)

	v, err := e.Evaluate(leave("2026-10-16", "2026-10-20"))
	require.NoError(t, err)
	assert.Equal(t, entity.DecisionAutoApproved, v.Decision)
}

func TestHandbook_Explain(t *testing.T) {
	h := NewHandbook(DefaultPolicy())

	tests := []struct {
		question string
		topic    string
		contains string
	}{
		{"how long can my guest stay overnight?", TopicGuestStay, "1 night"},
		{"what is the leave policy for going home", TopicLeave, "2 days"},
		{"who fixes a leak", TopicMaintenance, "same day"},
		{"can I get my room cleaning done", TopicRoomCleaning, "next day"},
		{"what time is curfew", TopicGeneral, "22:00"},
		{"hello", TopicGeneral, "22:00"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			topic, text := h.Explain(tt.question)
			assert.Equal(t, tt.topic, topic)
			assert.Contains(t, text, tt.contains)
		})
	}

	_, ok := h.Topic(TopicLeave)
	assert.True(t, ok)
	_, ok = h.Topic("parking")
	assert.False(t, ok)
}
