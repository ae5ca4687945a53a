package entity

// RequestType identifies an actionable resident request
type RequestType string

const (
	RequestGuest        RequestType = "guest_request"
	RequestLeave        RequestType = "leave_request"
	RequestMaintenance  RequestType = "maintenance_request"
	RequestRoomCleaning RequestType = "room_cleaning"
)

var requestTypes = []RequestType{
	RequestGuest,
	RequestLeave,
	RequestMaintenance,
	RequestRoomCleaning,
}

// RequestTypes returns every actionable request type in a stable order
func RequestTypes() []RequestType {
	return append([]RequestType(nil), requestTypes...)
}

// Valid reports whether t is one of the closed set of request types
func (t RequestType) Valid() bool {
	switch t {
	case RequestGuest, RequestLeave, RequestMaintenance, RequestRoomCleaning:
		return true
	default:
		return false
	}
}

// String returns the string representation of the request type
func (t RequestType) String() string {
	return string(t)
}

// Noun returns the short human name used in responses ("guest", "leave", ...)
func (t RequestType) Noun() string {
	switch t {
	case RequestGuest:
		return "guest"
	case RequestLeave:
		return "leave"
	case RequestMaintenance:
		return "maintenance"
	case RequestRoomCleaning:
		return "room cleaning"
	default:
		return "request"
	}
}

// Intent is the label returned by the entity extractor
type Intent string

const (
	IntentGuest        Intent = "guest_request"
	IntentLeave        Intent = "leave_request"
	IntentMaintenance  Intent = "maintenance_request"
	IntentRoomCleaning Intent = "room_cleaning"
	IntentRuleInquiry  Intent = "rule_inquiry"
	IntentGeneralQuery Intent = "general_query"
	IntentUnknown      Intent = "unknown"
)

// ParseIntent maps a raw label to an Intent, falling back to IntentUnknown
func ParseIntent(raw string) Intent {
	switch i := Intent(raw); i {
	case IntentGuest, IntentLeave, IntentMaintenance, IntentRoomCleaning,
		IntentRuleInquiry, IntentGeneralQuery, IntentUnknown:
		return i
	default:
		return IntentUnknown
	}
}

// RequestType returns the actionable request type behind the intent, if any
func (i Intent) RequestType() (RequestType, bool) {
	t := RequestType(i)
	return t, t.Valid()
}

// String returns the string representation of the intent
func (i Intent) String() string {
	return string(i)
}

// Canonical field names shared by the extractor, slot filling and the approval engine
const (
	FieldGuestName          = "guest_name"
	FieldStartDate          = "start_date"
	FieldEndDate            = "end_date"
	FieldDuration           = "duration"
	FieldReason             = "reason"
	FieldProblemDescription = "problem_description"
	FieldLocation           = "location"
	FieldRoomNumber         = "room_number"
	FieldUrgency            = "urgency"
)

// RequiredFields returns the required fields of a request type in asking order
func RequiredFields(t RequestType) []string {
	switch t {
	case RequestGuest:
		return []string{FieldGuestName, FieldStartDate, FieldEndDate}
	case RequestLeave:
		return []string{FieldStartDate, FieldEndDate, FieldReason}
	case RequestMaintenance:
		return []string{FieldProblemDescription, FieldLocation}
	case RequestRoomCleaning:
		return []string{FieldRoomNumber}
	default:
		return nil
	}
}

// MissingFields returns the required fields of t that are empty in fields
func MissingFields(t RequestType, fields map[string]string) []string {
	var missing []string
	for _, f := range RequiredFields(t) {
		if fields[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// UserRole identifies who sent a message
type UserRole string

const (
	RoleResident UserRole = "resident"
	RoleStaff    UserRole = "staff"
)

// Valid reports whether the role is known
func (r UserRole) Valid() bool {
	return r == RoleResident || r == RoleStaff
}

// Notification delivery status constants
const (
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
	NotificationStatusSkipped = "SKIPPED"
)
