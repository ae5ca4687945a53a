package workflow

import (
	"context"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	domainwf "github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/workflow"
)

type slot struct {
	field string
	state domainwf.State
}

// sessionSlots lists the collecting states of each request type in asking order
var sessionSlots = map[entity.RequestType][]slot{
	entity.RequestGuest: {
		{entity.FieldGuestName, domainwf.StateCollectingGuestName},
		{entity.FieldStartDate, domainwf.StateCollectingVisitStart},
		{entity.FieldEndDate, domainwf.StateCollectingVisitEnd},
	},
	entity.RequestLeave: {
		{entity.FieldStartDate, domainwf.StateCollectingStartDate},
		{entity.FieldEndDate, domainwf.StateCollectingEndDate},
		{entity.FieldReason, domainwf.StateCollectingReason},
	},
	entity.RequestMaintenance: {
		{entity.FieldProblemDescription, domainwf.StateCollectingProblemDescription},
		{entity.FieldLocation, domainwf.StateCollectingLocation},
	},
	entity.RequestRoomCleaning: {
		{entity.FieldRoomNumber, domainwf.StateCollectingRoomNumber},
	},
}

// BuildSessionMachine creates the dialogue machine of a request type.
// From idle (OPEN) or any collecting state (ANSWER) the machine moves to the
// first slot that is still empty in fields, or to complete.
func BuildSessionMachine(t entity.RequestType, initialState domainwf.State, fields map[string]string) domainwf.StateMachine {
	builder := domainwf.NewBuilder()
	slots := sessionSlots[t]

	configure := func(from domainwf.State, trigger domainwf.Trigger) {
		cfg := builder.Configure(from)
		for _, s := range slots {
			field := s.field
			cfg.PermitIf(trigger, s.state, func(_ context.Context) bool {
				return fields[field] == ""
			})
		}
		cfg.Permit(trigger, domainwf.StateComplete).
			Permit(domainwf.TriggerCancel, domainwf.StateCancelled)
	}

	configure(domainwf.StateIdle, domainwf.TriggerOpen)
	for _, s := range slots {
		configure(s.state, domainwf.TriggerAnswer)
	}

	return builder.Build(initialState)
}

// fieldFor returns the field a collecting state of t waits for
func fieldFor(t entity.RequestType, state domainwf.State) (string, bool) {
	for _, s := range sessionSlots[t] {
		if s.state == state {
			return s.field, true
		}
	}
	return "", false
}
