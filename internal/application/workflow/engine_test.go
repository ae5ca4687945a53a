package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	domainwf "github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/workflow"
)

var today = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func newSession(t entity.RequestType) *entity.DialogueSession {
	return &entity.DialogueSession{Type: t, Fields: map[string]string{}, OpenedAt: today}
}

// atStep builds a session that already asked for its first missing field
func atStep(t entity.RequestType, step domainwf.State, fields map[string]string) *entity.DialogueSession {
	return &entity.DialogueSession{
		Type:    t,
		Step:    step.String(),
		Fields:  fields,
		Pending: entity.MissingFields(t, fields),
	}
}

func advance(t *testing.T, in Input) Turn {
	t.Helper()
	if in.Today.IsZero() {
		in.Today = today
	}
	turn, err := NewSlotFillingEngine(nil).Advance(context.Background(), in)
	require.NoError(t, err)
	return turn
}

func TestAdvance_GuestDialogueCompletesAfterCompoundAnswer(t *testing.T) {
	s := newSession(entity.RequestGuest)

	turn := advance(t, Input{Session: s, Text: "my friend is coming"})
	assert.Equal(t, domainwf.StateCollectingGuestName, turn.State)
	assert.Equal(t, entity.FieldGuestName, turn.Awaiting)
	assert.Equal(t, "Got it! You want to request guest permission.\n\nFirst, what's your guest's name?", turn.Question)
	assert.Equal(t, []string{entity.FieldGuestName, entity.FieldStartDate, entity.FieldEndDate}, s.Pending)

	turn = advance(t, Input{
		Session: s,
		Text:    "Sam, tomorrow, 2 hours",
		Answer:  true,
		Extracted: map[string]string{
			"visit_date": "2026-10-16",
			"duration":   "2 hours",
		},
	})
	require.True(t, turn.Complete)
	assert.Equal(t, domainwf.StateComplete, turn.State)
	assert.Equal(t, "Sam", turn.Fields[entity.FieldGuestName])
	assert.Equal(t, "2026-10-16", turn.Fields[entity.FieldStartDate])
	assert.Equal(t, "2026-10-16", turn.Fields[entity.FieldEndDate])
	assert.Empty(t, s.Pending)
}

func TestAdvance_GenericGuestNameIsRejected(t *testing.T) {
	s := atStep(entity.RequestGuest, domainwf.StateCollectingGuestName, map[string]string{})

	for _, answer := range []string{"guest", "my friend", "visitor"} {
		t.Run(answer, func(t *testing.T) {
			turn := advance(t, Input{Session: s, Text: answer, Answer: true})

			assert.Equal(t, domainwf.StateCollectingGuestName, turn.State)
			assert.Empty(t, s.Fields[entity.FieldGuestName])
			require.Len(t, turn.Rejected, 1)
			assert.Equal(t, RejectGenericName, turn.Rejected[0].Reason)
			assert.Contains(t, turn.Question, "doesn't look like a name")
			assert.Contains(t, turn.Question, "What is your guest's name?")
		})
	}
	assert.Equal(t, 3, s.Reasks)
}

func TestAdvance_ExtractedGenericNameIsRejected(t *testing.T) {
	s := newSession(entity.RequestGuest)

	turn := advance(t, Input{
		Session:   s,
		Text:      "can my guest visit tomorrow",
		Extracted: map[string]string{entity.FieldGuestName: "Guest", entity.FieldStartDate: "tomorrow"},
	})

	assert.Equal(t, domainwf.StateCollectingGuestName, turn.State)
	assert.Empty(t, s.Fields[entity.FieldGuestName])
	assert.Equal(t, "2026-10-16", s.Fields[entity.FieldStartDate])
	assert.Contains(t, turn.Question, `"Guest" doesn't look like a name`)
}

func TestAdvance_ConfirmedValuesAreNotOverwritten(t *testing.T) {
	s := atStep(entity.RequestGuest, domainwf.StateCollectingVisitStart, map[string]string{
		entity.FieldGuestName: "Sam",
	})

	turn := advance(t, Input{
		Session: s,
		Text:    "tomorrow",
		Answer:  true,
		Extracted: map[string]string{
			entity.FieldGuestName: "Alex",
			entity.FieldStartDate: "tomorrow",
			entity.FieldEndDate:   "  ",
		},
	})

	assert.Equal(t, "Sam", s.Fields[entity.FieldGuestName])
	assert.Equal(t, "2026-10-16", s.Fields[entity.FieldStartDate])
	assert.Equal(t, domainwf.StateCollectingVisitEnd, turn.State)
	assert.Equal(t, "For how long will Sam stay? (e.g. '2 hours', 'overnight', '2 days')", turn.Question)
	assert.Zero(t, turn.Reasks)
}

func TestAdvance_CorrectionReplacesStartAndRederivesEnd(t *testing.T) {
	s := atStep(entity.RequestLeave, domainwf.StateCollectingReason, map[string]string{
		entity.FieldStartDate: "2026-10-16",
		entity.FieldDuration:  "2 days",
		entity.FieldEndDate:   "2026-10-18",
	})

	turn := advance(t, Input{
		Session:   s,
		Text:      "actually make it 2026-10-17",
		Extracted: map[string]string{entity.FieldStartDate: "2026-10-17"},
	})

	assert.Equal(t, "2026-10-17", s.Fields[entity.FieldStartDate])
	assert.Equal(t, "2026-10-19", s.Fields[entity.FieldEndDate])
	assert.Equal(t, domainwf.StateCollectingReason, turn.State)
}

func TestAdvance_LoneDateAnswersEndDate(t *testing.T) {
	s := atStep(entity.RequestLeave, domainwf.StateCollectingEndDate, map[string]string{
		entity.FieldStartDate: "2026-10-16",
	})

	turn := advance(t, Input{
		Session:   s,
		Text:      "I'll be back then",
		Extracted: map[string]string{"leave_from": "2026-10-20"},
	})

	assert.Equal(t, "2026-10-16", s.Fields[entity.FieldStartDate])
	assert.Equal(t, "2026-10-20", s.Fields[entity.FieldEndDate])
	assert.Equal(t, domainwf.StateCollectingReason, turn.State)
	assert.Equal(t, "What is the reason for your leave? (e.g. 'going home', 'family emergency', 'medical')", turn.Question)
}

func TestAdvance_LeaveDurationDerivesEndDate(t *testing.T) {
	s := newSession(entity.RequestLeave)

	turn := advance(t, Input{
		Session:   s,
		Text:      "I want leave from tomorrow for 3 days",
		Extracted: map[string]string{entity.FieldStartDate: "2026-10-16", "duration_days": "3"},
	})

	assert.Equal(t, "2026-10-19", s.Fields[entity.FieldEndDate])
	assert.Equal(t, "3 days", s.Fields[entity.FieldDuration])
	assert.Equal(t, entity.FieldReason, turn.Awaiting)
	assert.Equal(t, "I understand you want to request leave. What is the reason for your leave? (e.g. 'going home', 'family emergency', 'medical')", turn.Question)

	turn = advance(t, Input{Session: s, Text: "family emergency", Answer: true})
	require.True(t, turn.Complete)
	assert.Equal(t, "family emergency", turn.Fields[entity.FieldReason])
}

func TestAdvance_UnrecognisedDateIsRejected(t *testing.T) {
	s := newSession(entity.RequestLeave)

	turn := advance(t, Input{
		Session:   s,
		Text:      "leave from someday",
		Extracted: map[string]string{entity.FieldStartDate: "someday"},
	})

	assert.Empty(t, s.Fields[entity.FieldStartDate])
	assert.Equal(t, entity.FieldStartDate, turn.Awaiting)
	assert.Equal(t, `I couldn't understand the date "someday". From which date are you leaving? (e.g. 'tomorrow', 'February 1st', 'next Monday')`, turn.Question)
}

func TestAdvance_MaintenanceDefaultsToOwnRoom(t *testing.T) {
	s := newSession(entity.RequestMaintenance)

	turn := advance(t, Input{
		Session:   s,
		Text:      "my fan is not working",
		Extracted: map[string]string{"issue_description": "fan not working"},
		Profile:   entity.ResidentProfile{UserID: "r-101", RoomNumber: "B-12"},
	})

	require.True(t, turn.Complete)
	assert.Equal(t, "fan not working", turn.Fields[entity.FieldProblemDescription])
	assert.Equal(t, "room B-12", turn.Fields[entity.FieldLocation])
}

func TestAdvance_MaintenanceAsksForLocationWithoutProfileRoom(t *testing.T) {
	s := newSession(entity.RequestMaintenance)

	turn := advance(t, Input{
		Session:   s,
		Text:      "the tap is leaking",
		Extracted: map[string]string{entity.FieldProblemDescription: "the tap is leaking"},
	})
	assert.Equal(t, "I understand you need maintenance help. Where is the problem? Please share the room number or area.", turn.Question)

	turn = advance(t, Input{Session: s, Text: "not sure", Answer: true})
	assert.Equal(t, domainwf.StateCollectingLocation, turn.State)
	assert.Equal(t, 1, turn.Reasks)
	assert.Equal(t, "Sorry, I still need this. Where is the problem? Please share the room number or area.", turn.Question)

	turn = advance(t, Input{Session: s, Text: "common bathroom", Answer: true})
	require.True(t, turn.Complete)
	assert.Equal(t, "common bathroom", turn.Fields[entity.FieldLocation])
}

func TestAdvance_RoomCleaning(t *testing.T) {
	t.Run("profile room", func(t *testing.T) {
		turn := advance(t, Input{
			Session: newSession(entity.RequestRoomCleaning),
			Text:    "please clean my room",
			Profile: entity.ResidentProfile{RoomNumber: "B-12"},
		})
		require.True(t, turn.Complete)
		assert.Equal(t, "B-12", turn.Fields[entity.FieldRoomNumber])
	})

	t.Run("asked room", func(t *testing.T) {
		s := newSession(entity.RequestRoomCleaning)
		turn := advance(t, Input{Session: s, Text: "cleaning please"})
		assert.Equal(t, "Sure, I can book a room cleaning. Which room should be cleaned?", turn.Question)

		turn = advance(t, Input{Session: s, Text: "Room 204", Answer: true})
		require.True(t, turn.Complete)
		assert.Equal(t, "204", turn.Fields[entity.FieldRoomNumber])
	})
}

func TestAdvance_CancelWordEndsSession(t *testing.T) {
	s := atStep(entity.RequestGuest, domainwf.StateCollectingVisitStart, map[string]string{
		entity.FieldGuestName: "Sam",
	})

	turn := advance(t, Input{Session: s, Text: "cancel", Answer: true})

	assert.True(t, turn.Cancelled)
	assert.False(t, turn.Complete)
	assert.Equal(t, domainwf.StateCancelled, turn.State)
	assert.Equal(t, "Okay, I've cancelled your guest request. Nothing was submitted.", turn.Question)
	assert.Empty(t, s.Pending)
}

func TestCancel(t *testing.T) {
	s := atStep(entity.RequestRoomCleaning, domainwf.StateCollectingRoomNumber, map[string]string{})

	turn := NewSlotFillingEngine(nil).Cancel(s)

	assert.True(t, turn.Cancelled)
	assert.Equal(t, domainwf.StateCancelled.String(), s.Step)
	assert.Contains(t, turn.Question, "room cleaning request")
}

func TestAdvance_InvalidInput(t *testing.T) {
	e := NewSlotFillingEngine(nil)

	_, err := e.Advance(context.Background(), Input{})
	assert.Error(t, err)

	_, err = e.Advance(context.Background(), Input{Session: &entity.DialogueSession{Type: "parking"}})
	assert.Error(t, err)
}

func TestBuildSessionMachine(t *testing.T) {
	tests := []struct {
		name    string
		t       entity.RequestType
		initial domainwf.State
		trigger domainwf.Trigger
		fields  map[string]string
		want    domainwf.State
	}{
		{"open empty guest", entity.RequestGuest, domainwf.StateIdle, domainwf.TriggerOpen, map[string]string{}, domainwf.StateCollectingGuestName},
		{"open guest with name", entity.RequestGuest, domainwf.StateIdle, domainwf.TriggerOpen, map[string]string{entity.FieldGuestName: "Sam"}, domainwf.StateCollectingVisitStart},
		{"leave skips to reason", entity.RequestLeave, domainwf.StateCollectingStartDate, domainwf.TriggerAnswer,
			map[string]string{entity.FieldStartDate: "2026-10-16", entity.FieldEndDate: "2026-10-17"}, domainwf.StateCollectingReason},
		{"maintenance complete", entity.RequestMaintenance, domainwf.StateCollectingLocation, domainwf.TriggerAnswer,
			map[string]string{entity.FieldProblemDescription: "leak", entity.FieldLocation: "room 1"}, domainwf.StateComplete},
		{"cancel", entity.RequestLeave, domainwf.StateCollectingReason, domainwf.TriggerCancel, map[string]string{}, domainwf.StateCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildSessionMachine(tt.t, tt.initial, tt.fields)
			got, err := m.Fire(context.Background(), tt.trigger)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSessionMachine_CompleteIsTerminal(t *testing.T) {
	m := BuildSessionMachine(entity.RequestRoomCleaning, domainwf.StateComplete, map[string]string{})
	_, err := m.Fire(context.Background(), domainwf.TriggerAnswer)
	assert.ErrorIs(t, err, domainwf.ErrTerminalState)
}
