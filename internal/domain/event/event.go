package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by producers and notification channels
const (
	KeyRequesterID = "requester_id"
	KeyRoomNumber  = "room_number"
	KeyRequestType = "request_type"
	KeyGuestName   = "guest_name"
	KeyStartDate   = "start_date"
	KeyEndDate     = "end_date"
	KeyDescription = "description"
	KeyLocation    = "location"
	KeyScheduled   = "scheduled_for"
	KeyUrgency     = "urgency"
	KeyWorkOrderID = "work_order_id"
	KeyStaffRole   = "staff_role"
	KeyPriority    = "priority"
	KeyReason      = "reason"
	KeyRecordID    = "record_id"
	KeyConfidence  = "confidence"
)

// Event is a notification-worthy fact produced by the router
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RecordID      int64                  `json:"record_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new event with a fresh ID and correlation ID
func NewEvent(eventType Type, recordID int64, payload map[string]interface{}) *Event {
	return NewEventWithCorrelation(eventType, recordID, payload, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to an existing correlation chain
func NewEventWithCorrelation(eventType Type, recordID int64, payload map[string]interface{}, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RecordID:      recordID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	return &Event{
		ID:            e.ID,
		Type:          e.Type,
		RecordID:      e.RecordID,
		Payload:       newPayload,
		Timestamp:     e.Timestamp,
		CorrelationID: e.CorrelationID,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetPayloadFloat retrieves a float64 value from the payload
func (e *Event) GetPayloadFloat(key string) float64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0.0
}
