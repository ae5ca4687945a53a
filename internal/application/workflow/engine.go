package workflow

import (
	"context"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	domainwf "github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/workflow"
)

// SlotFillingEngine collects the required fields of one request type,
// asking for exactly one missing field per turn
type SlotFillingEngine interface {
	// Advance merges the values of one message into the session and moves
	// its dialogue step. The session is mutated in place.
	Advance(ctx context.Context, in Input) (Turn, error)

	// Cancel ends the session without a request
	Cancel(session *entity.DialogueSession) Turn
}

// Input is one turn of a dialogue session
type Input struct {
	Session *entity.DialogueSession
	// Extracted holds the extractor's entity values for this message
	Extracted map[string]string
	Text      string
	// Answer is set when the message answers the awaited question
	Answer  bool
	Profile entity.ResidentProfile
	// Today is the requester's civil date
	Today time.Time
}

// RejectedValue is a value that was not accepted for its slot
type RejectedValue struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Rejection reasons
const (
	RejectGenericName      = "generic_name"
	RejectUnrecognisedDate = "unrecognised_date"
)

// Turn is the outcome of one Advance
type Turn struct {
	State    domainwf.State
	Awaiting string
	Question string
	// Complete is set when every required field is present; Fields then holds them
	Complete  bool
	Cancelled bool
	Fields    map[string]string
	Rejected  []RejectedValue
	Reasks    int
}
