package workflow

// Trigger represents a dialogue event that can cause a state transition
type Trigger string

const (
	// TriggerOpen starts collecting from idle
	TriggerOpen Trigger = "OPEN"
	// TriggerAnswer re-evaluates the session after new values were merged
	TriggerAnswer Trigger = "ANSWER"
	// TriggerCancel ends the session without a request
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
