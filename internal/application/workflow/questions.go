package workflow

import (
	"fmt"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

var openers = map[entity.RequestType]string{
	entity.RequestGuest:        "Got it! You want to request guest permission.",
	entity.RequestLeave:        "I understand you want to request leave.",
	entity.RequestMaintenance:  "I understand you need maintenance help.",
	entity.RequestRoomCleaning: "Sure, I can book a room cleaning.",
}

// question renders the prompt for field. Opening turns are prefixed with an
// acknowledgement of the request type; a rejected value is explained first.
func question(s *entity.DialogueSession, field string, opening bool, rejected *RejectedValue) string {
	q := fieldQuestion(s, field)

	switch {
	case rejected != nil && rejected.Reason == RejectGenericName:
		return fmt.Sprintf("%q doesn't look like a name. %s", rejected.Value, q)
	case rejected != nil && rejected.Reason == RejectUnrecognisedDate:
		return fmt.Sprintf("I couldn't understand the date %q. %s", rejected.Value, q)
	case opening && field == entity.FieldGuestName:
		return openers[s.Type] + "\n\nFirst, what's your guest's name?"
	case opening:
		return openers[s.Type] + " " + q
	case s.Reasks > 0:
		return "Sorry, I still need this. " + q
	default:
		return q
	}
}

func fieldQuestion(s *entity.DialogueSession, field string) string {
	guest := s.Fields[entity.FieldGuestName]
	if guest == "" {
		guest = "your guest"
	}

	switch {
	case field == entity.FieldGuestName:
		return "What is your guest's name?"
	case field == entity.FieldStartDate && s.Type == entity.RequestGuest:
		return fmt.Sprintf("When will %s visit? (e.g. 'today', 'tomorrow', 'this weekend')", guest)
	case field == entity.FieldEndDate && s.Type == entity.RequestGuest:
		return fmt.Sprintf("For how long will %s stay? (e.g. '2 hours', 'overnight', '2 days')", guest)
	case field == entity.FieldStartDate:
		return "From which date are you leaving? (e.g. 'tomorrow', 'February 1st', 'next Monday')"
	case field == entity.FieldEndDate:
		return "When will you return? (e.g. 'in 2 days', 'next Monday', or a specific date)"
	case field == entity.FieldReason:
		return "What is the reason for your leave? (e.g. 'going home', 'family emergency', 'medical')"
	case field == entity.FieldProblemDescription:
		return "What problem are you experiencing? (e.g. 'AC not working', 'water leakage', 'broken door')"
	case field == entity.FieldLocation:
		return "Where is the problem? Please share the room number or area."
	case field == entity.FieldRoomNumber:
		return "Which room should be cleaned?"
	default:
		return fmt.Sprintf("Could you tell me the %s?", field)
	}
}
