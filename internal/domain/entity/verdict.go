package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidVerdict is returned when a verdict breaks its structural invariants
var ErrInvalidVerdict = errors.New("invalid approval verdict")

// Decision is the kind of verdict the approval engine reached
type Decision string

const (
	DecisionAutoApproved Decision = "auto_approved"
	DecisionEscalated    Decision = "escalated"
	DecisionRejected     Decision = "rejected"
)

// StaffRole is a staff group requests can be routed to
type StaffRole string

const (
	StaffWarden      StaffRole = "warden"
	StaffSecurity    StaffRole = "security"
	StaffMaintenance StaffRole = "maintenance"
	StaffAdmin       StaffRole = "admin"
)

// Valid reports whether r is one of the known staff roles
func (r StaffRole) Valid() bool {
	switch r {
	case StaffWarden, StaffSecurity, StaffMaintenance, StaffAdmin:
		return true
	}
	return false
}

// Priority orders escalations and maintenance work
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Maintenance urgency levels derived from the problem description
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// EscalationTarget names who should review an escalated request
type EscalationTarget struct {
	Role       StaffRole `json:"role"`
	Priority   Priority  `json:"priority"`
	ReasonCode string    `json:"reason_code"`
}

// MaintenanceSchedule is attached to auto-scheduled maintenance and cleaning
type MaintenanceSchedule struct {
	WorkOrderID  string   `json:"work_order_id"`
	Urgency      string   `json:"urgency"`
	Priority     Priority `json:"priority"`
	ScheduledFor string   `json:"scheduled_for"`
}

// ApprovalVerdict is the outcome of evaluating one complete request.
// RulesEvaluated lists every rule checked, in order; RulesFired lists the
// guard rules that were violated plus the action rules that applied.
type ApprovalVerdict struct {
	Approved       bool                 `json:"approved"`
	Decision       Decision             `json:"decision"`
	Reasoning      string               `json:"reasoning"`
	RulesEvaluated []string             `json:"rules_evaluated"`
	RulesFired     []string             `json:"rules_fired"`
	Escalation     *EscalationTarget    `json:"escalation,omitempty"`
	Schedule       *MaintenanceSchedule `json:"schedule,omitempty"`
	Confidence     float64              `json:"confidence"`

	// FailedValidation is the validation rule that rejected the request, if any
	FailedValidation string `json:"failed_validation,omitempty"`
}

// Validate checks the verdict invariants
func (v ApprovalVerdict) Validate() error {
	switch v.Decision {
	case DecisionAutoApproved:
		if !v.Approved {
			return fmt.Errorf("%w: auto_approved verdict must be approved", ErrInvalidVerdict)
		}
		if v.Escalation != nil {
			return fmt.Errorf("%w: auto_approved verdict carries an escalation target", ErrInvalidVerdict)
		}
	case DecisionEscalated:
		if v.Approved {
			return fmt.Errorf("%w: escalated verdict cannot be approved", ErrInvalidVerdict)
		}
		if v.Escalation == nil {
			return fmt.Errorf("%w: escalated verdict has no escalation target", ErrInvalidVerdict)
		}
	case DecisionRejected:
		if v.Approved {
			return fmt.Errorf("%w: rejected verdict cannot be approved", ErrInvalidVerdict)
		}
	default:
		return fmt.Errorf("%w: unknown decision %q", ErrInvalidVerdict, v.Decision)
	}
	return nil
}
