package entity

import "time"

// AuditDecision is the coarse decision recorded for an outcome
type AuditDecision string

const (
	AuditApproved  AuditDecision = "approved"
	AuditEscalated AuditDecision = "escalated"
	AuditRejected  AuditDecision = "rejected"
	AuditFailed    AuditDecision = "failed"
	AuditProcessed AuditDecision = "processed"
)

// AuditCode distinguishes why an outcome happened.
// Policy, validation, system failures and slot ambiguity each get their own code.
type AuditCode string

const (
	CodeAutoApproved      AuditCode = "auto_approved"
	CodeEscalated         AuditCode = "escalated"
	CodePolicyRejected    AuditCode = "policy_rejected"
	CodeValidationFailed  AuditCode = "validation_rejected"
	CodeExtractionFailed  AuditCode = "extraction_failed"
	CodePersistenceFailed AuditCode = "persistence_failed"
	CodeInvalidInput      AuditCode = "invalid_input"
	CodeInternalError     AuditCode = "internal_error"
	CodeSlotValueRejected AuditCode = "slot_value_rejected"
	CodeCancelled         AuditCode = "cancelled"
)

// Decision returns the coarse decision a code belongs to
func (c AuditCode) Decision() AuditDecision {
	switch c {
	case CodeAutoApproved:
		return AuditApproved
	case CodeEscalated:
		return AuditEscalated
	case CodePolicyRejected, CodeValidationFailed:
		return AuditRejected
	case CodeExtractionFailed, CodePersistenceFailed, CodeInvalidInput, CodeInternalError:
		return AuditFailed
	default:
		return AuditProcessed
	}
}

// FailureCode maps a failure kind to its audit code
func FailureCode(kind FailureKind) AuditCode {
	switch kind {
	case FailureExtraction:
		return CodeExtractionFailed
	case FailurePersistence:
		return CodePersistenceFailed
	case FailureInvalidInput:
		return CodeInvalidInput
	default:
		return CodeInternalError
	}
}

// AuditEntry is one append-only audit trail row
type AuditEntry struct {
	ID             string            `json:"id"`
	CorrelationID  string            `json:"correlation_id"`
	ActorID        string            `json:"actor_id"`
	ActorRole      UserRole          `json:"actor_role"`
	ConversationID string            `json:"conversation_id"`
	MessageID      string            `json:"message_id"`
	RequestType    RequestType       `json:"request_type,omitempty"`
	Decision       AuditDecision     `json:"decision"`
	Code           AuditCode         `json:"code"`
	Reasoning      string            `json:"reasoning"`
	RuleIDs        []string          `json:"rule_ids"`
	Fields         map[string]string `json:"fields,omitempty"`
	Verdict        *ApprovalVerdict  `json:"verdict,omitempty"`
	Confidence     float64           `json:"confidence"`
	RecordID       int64             `json:"record_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
