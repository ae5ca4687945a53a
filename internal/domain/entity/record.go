package entity

import "time"

// RecordStatus is the status a business record is created in
type RecordStatus string

const (
	RecordApproved RecordStatus = "approved"
	RecordPending  RecordStatus = "pending"
)

// RequestRecord is the persisted guest, leave, maintenance or cleaning request
type RequestRecord struct {
	ID             int64        `json:"id" db:"id"`
	Type           RequestType  `json:"type" db:"request_type"`
	RequesterID    string       `json:"requester_id" db:"requester_id"`
	RoomNumber     string       `json:"room_number" db:"room_number"`
	GuestName      string       `json:"guest_name,omitempty" db:"guest_name"`
	StartDate      string       `json:"start_date,omitempty" db:"start_date"`
	EndDate        string       `json:"end_date,omitempty" db:"end_date"`
	Description    string       `json:"description,omitempty" db:"description"`
	Location       string       `json:"location,omitempty" db:"location"`
	Urgency        string       `json:"urgency,omitempty" db:"urgency"`
	Status         RecordStatus `json:"status" db:"status"`
	AutoApproved   bool         `json:"auto_approved" db:"auto_approved"`
	ApprovalReason string       `json:"approval_reason" db:"approval_reason"`
	EscalatedTo    string       `json:"escalated_to,omitempty" db:"escalated_to"`
	WorkOrderID    string       `json:"work_order_id,omitempty" db:"work_order_id"`
	CorrelationID  string       `json:"correlation_id" db:"correlation_id"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// NewRequestRecord maps a completed field set and verdict onto a record
func NewRequestRecord(t RequestType, requesterID string, fields map[string]string, verdict ApprovalVerdict, correlationID string) *RequestRecord {
	rec := &RequestRecord{
		Type:           t,
		RequesterID:    requesterID,
		RoomNumber:     fields[FieldRoomNumber],
		GuestName:      fields[FieldGuestName],
		StartDate:      fields[FieldStartDate],
		EndDate:        fields[FieldEndDate],
		Location:       fields[FieldLocation],
		Urgency:        fields[FieldUrgency],
		AutoApproved:   verdict.Approved,
		ApprovalReason: verdict.Reasoning,
		CorrelationID:  correlationID,
	}

	switch t {
	case RequestLeave:
		rec.Description = fields[FieldReason]
	case RequestMaintenance:
		rec.Description = fields[FieldProblemDescription]
	}

	if verdict.Approved {
		rec.Status = RecordApproved
	} else {
		rec.Status = RecordPending
	}
	if verdict.Escalation != nil {
		rec.EscalatedTo = string(verdict.Escalation.Role)
	}
	if verdict.Schedule != nil {
		rec.WorkOrderID = verdict.Schedule.WorkOrderID
		if rec.Urgency == "" {
			rec.Urgency = verdict.Schedule.Urgency
		}
	}
	return rec
}
