package event

// Type identifies the kind of notification event
type Type string

const (
	TypeGuestApproved        Type = "guest.approved"
	TypeLeaveApproved        Type = "leave.approved"
	TypeMaintenanceScheduled Type = "maintenance.scheduled"
	TypeCleaningScheduled    Type = "cleaning.scheduled"
	TypeStaffEscalation      Type = "staff.escalation"
	TypeTriageFailure        Type = "triage.failure"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeGuestApproved,
		TypeLeaveApproved,
		TypeMaintenanceScheduled,
		TypeCleaningScheduled,
		TypeStaffEscalation,
		TypeTriageFailure:
		return true
	default:
		return false
	}
}

// AllTypes returns every defined event type
func AllTypes() []Type {
	return []Type{
		TypeGuestApproved,
		TypeLeaveApproved,
		TypeMaintenanceScheduled,
		TypeCleaningScheduled,
		TypeStaffEscalation,
		TypeTriageFailure,
	}
}
