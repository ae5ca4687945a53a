package workflow

import (
	"fmt"
	"strings"
)

// State is a dialogue step of one request-type session
type State string

const (
	StateIdle      State = "idle"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"

	StateCollectingGuestName          State = "collecting_guest_name"
	StateCollectingVisitStart         State = "collecting_visit_start"
	StateCollectingVisitEnd           State = "collecting_visit_end"
	StateCollectingStartDate          State = "collecting_start_date"
	StateCollectingEndDate            State = "collecting_end_date"
	StateCollectingReason             State = "collecting_reason"
	StateCollectingProblemDescription State = "collecting_problem_description"
	StateCollectingLocation           State = "collecting_location"
	StateCollectingRoomNumber         State = "collecting_room_number"
)

// collectingPrefix marks states that wait for a field value
const collectingPrefix = "collecting_"

var validStates = map[State]bool{
	StateIdle:                         true,
	StateComplete:                     true,
	StateCancelled:                    true,
	StateCollectingGuestName:          true,
	StateCollectingVisitStart:         true,
	StateCollectingVisitEnd:           true,
	StateCollectingStartDate:          true,
	StateCollectingEndDate:            true,
	StateCollectingReason:             true,
	StateCollectingProblemDescription: true,
	StateCollectingLocation:           true,
	StateCollectingRoomNumber:         true,
}

var terminalStates = map[State]bool{
	StateComplete:  true,
	StateCancelled: true,
}

// IsTerminal returns true if the session ended (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsCollecting returns true if the state is waiting for a field value
func (s State) IsCollecting() bool {
	return strings.HasPrefix(string(s), collectingPrefix)
}

// Slot returns the slot name a collecting state waits for ("" otherwise)
func (s State) Slot() string {
	if !s.IsCollecting() {
		return ""
	}
	return strings.TrimPrefix(string(s), collectingPrefix)
}

// CollectingState returns the state that waits for the named slot
func CollectingState(slot string) State {
	return State(collectingPrefix + slot)
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known dialogue state
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a stored step name back into a State
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return StateIdle, fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return state, nil
}
