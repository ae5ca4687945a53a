package service

import (
	"fmt"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

const (
	greetingText = "Hello! I can help you with guest permissions, leave requests, maintenance problems and room cleaning. What do you need?"
	unclearText  = "I'm not sure what you need. I can help with guest visits, leave, maintenance and room cleaning. Could you describe your request in a little more detail?"
)

func guestApprovedText(rec *entity.RequestRecord, _ entity.ApprovalVerdict) string {
	return fmt.Sprintf("Guest permission for %s on %s has been approved. Security has been notified; please ask your guest to carry a photo ID and sign in at the desk.",
		rec.GuestName, dateRange(rec.StartDate, rec.EndDate))
}

func leaveApprovedText(rec *entity.RequestRecord, _ entity.ApprovalVerdict) string {
	return fmt.Sprintf("Your leave from %s to %s has been approved. Please sign out at the security desk when you leave and sign back in when you return.",
		rec.StartDate, rec.EndDate)
}

func maintenanceApprovedText(rec *entity.RequestRecord, v entity.ApprovalVerdict) string {
	if v.Schedule == nil {
		return "Your maintenance request has been logged. The maintenance team will be in touch."
	}
	return fmt.Sprintf("Your maintenance request has been logged as work order %s with %s priority. A technician will attend %s on %s.",
		v.Schedule.WorkOrderID, v.Schedule.Priority, rec.Location, v.Schedule.ScheduledFor)
}

func cleaningApprovedText(rec *entity.RequestRecord, v entity.ApprovalVerdict) string {
	if v.Schedule == nil {
		return fmt.Sprintf("Room cleaning for room %s has been booked.", rec.RoomNumber)
	}
	return fmt.Sprintf("Room cleaning for room %s is booked for %s (%s).", rec.RoomNumber, v.Schedule.ScheduledFor, v.Schedule.WorkOrderID)
}

func escalatedText(t entity.RequestType, v entity.ApprovalVerdict) string {
	role := entity.StaffWarden
	if v.Escalation != nil {
		role = v.Escalation.Role
	}
	return fmt.Sprintf("Your %s request has been sent to the %s for approval. %s You will be notified once it is reviewed, usually within 24 hours.",
		t.Noun(), role, v.Reasoning)
}

func rejectedText(t entity.RequestType, v entity.ApprovalVerdict, policy approval.Policy) string {
	var hint string
	switch v.FailedValidation {
	case approval.RuleDateNotInPast:
		hint = "Please choose a start date from today onwards."
	case approval.RuleEndNotBeforeStart:
		hint = "Please check that the end date comes after the start date."
	case approval.RuleDurationWithinCap:
		hint = fmt.Sprintf("Requests can cover at most %d days; please speak to the warden for anything longer.", policy.MaxDurationDays)
	default:
		hint = "Please contact the warden if you think this is a mistake."
	}
	return fmt.Sprintf("I couldn't accept this %s request. %s %s", t.Noun(), v.Reasoning, hint)
}

func failureText(kind entity.FailureKind) string {
	switch kind {
	case entity.FailureExtraction:
		return "Sorry, I couldn't process your message right now. It has been forwarded to hostel staff, who will get back to you. You can also try sending it again."
	case entity.FailureInvalidInput:
		return "Sorry, I couldn't read that message. Please send your request as plain text."
	default:
		return "Sorry, something went wrong while processing your message. Nothing was submitted and your details are saved; please try again in a moment."
	}
}

func followUpText(last entity.IntentRecord) string {
	t, ok := last.Intent.RequestType()
	if !ok {
		return "I don't see any recent requests from you. What can I help you with?"
	}
	switch last.Outcome {
	case entity.StatusSuccess:
		return fmt.Sprintf("Your last %s request was approved. Is there anything else you need?", t.Noun())
	case entity.StatusEscalated:
		return fmt.Sprintf("Your last %s request is with the warden for review. You will be notified once it is decided.", t.Noun())
	case entity.StatusRejected:
		return fmt.Sprintf("Your last %s request was not accepted. You can send a new request at any time.", t.Noun())
	default:
		return fmt.Sprintf("Your last %s request is still being processed.", t.Noun())
	}
}
