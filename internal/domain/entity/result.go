package entity

import "time"

// ProcessingStatus is the outcome reported to the caller for one message
type ProcessingStatus string

const (
	StatusSuccess               ProcessingStatus = "success"
	StatusRequiresClarification ProcessingStatus = "requires_clarification"
	StatusEscalated             ProcessingStatus = "escalated"
	StatusRejected              ProcessingStatus = "rejected"
	StatusFailed                ProcessingStatus = "failed"
)

// MessageStatus tracks an inbound message through processing
type MessageStatus string

const (
	MessageReceived   MessageStatus = "received"
	MessageProcessing MessageStatus = "processing"
	MessageProcessed  MessageStatus = "processed"
	MessageFailed     MessageStatus = "failed"
)

// FailureKind classifies why processing failed
type FailureKind string

const (
	FailureExtraction   FailureKind = "extraction"
	FailurePersistence  FailureKind = "persistence"
	FailureInvalidInput FailureKind = "invalid_input"
	FailureInternal     FailureKind = "internal"
)

// InboundMessage is one resident or staff message handed to the router
type InboundMessage struct {
	ID         string        `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	UserRole   UserRole      `json:"user_role" db:"user_role"`
	Text       string        `json:"text" db:"text"`
	Status     MessageStatus `json:"status" db:"status"`
	ReceivedAt time.Time     `json:"received_at" db:"received_at"`
}

// ProcessingResult is returned for every routed message
type ProcessingResult struct {
	Status           ProcessingStatus `json:"status"`
	ResponseText     string           `json:"response_text"`
	Confidence       float64          `json:"confidence"`
	RequiresFollowUp bool             `json:"requires_follow_up"`
	ConversationID   string           `json:"conversation_id"`
	CorrelationID    string           `json:"correlation_id"`
	Classification   string           `json:"classification,omitempty"`
	RequestType      RequestType      `json:"request_type,omitempty"`
	Verdict          *ApprovalVerdict `json:"verdict,omitempty"`
	RecordID         int64            `json:"record_id,omitempty"`
	AuditCode        AuditCode        `json:"audit_code,omitempty"`
}
