package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
)

// decide evaluates a complete request, creates its record and audits the outcome
func (r *messageRouter) decide(ctx context.Context, call *routeCall, t entity.RequestType, fields map[string]string) *entity.ProcessingResult {
	history, err := r.history(ctx, call)
	if err != nil {
		return r.fail(ctx, call, entity.FailurePersistence, err)
	}

	verdict, err := r.Approvals.Evaluate(approval.Input{
		Type:        t,
		RequesterID: call.msg.UserID,
		Fields:      fields,
		History:     history,
		AsOf:        call.now,
		Location:    call.loc,
		Confidence:  call.confidence,
	})
	if err != nil {
		return r.fail(ctx, call, entity.FailureInternal, fmt.Errorf("evaluate %s request: %w", t, err))
	}
	if err := verdict.Validate(); err != nil {
		return r.fail(ctx, call, entity.FailureInternal, err)
	}

	if verdict.Decision == entity.DecisionRejected {
		return r.reject(ctx, call, t, fields, verdict)
	}

	rec := entity.NewRequestRecord(t, call.msg.UserID, fields, verdict, call.correlationID)
	if rec.RoomNumber == "" {
		rec.RoomNumber = call.profile.RoomNumber
	}
	rec.CreatedAt = call.now
	if err := r.Records.Create(ctx, rec); err != nil {
		return r.fail(ctx, call, entity.FailurePersistence, fmt.Errorf("create %s record: %w", t, err))
	}

	status, code := entity.StatusSuccess, entity.CodeAutoApproved
	text := r.handlers[t].approvedText(rec, verdict)
	if verdict.Decision == entity.DecisionEscalated {
		status, code = entity.StatusEscalated, entity.CodeEscalated
		text = escalatedText(t, verdict)
	}

	r.closeRequest(ctx, call, t, fields, status)

	entry := r.auditEntry(call, code, verdict.Reasoning)
	entry.RequestType = t
	entry.RuleIDs = verdict.RulesEvaluated
	entry.Fields = copyMap(fields)
	entry.Verdict = &verdict
	entry.RecordID = rec.ID
	r.recordAudit(ctx, entry)

	r.notifyOutcome(ctx, call, t, rec, verdict)

	res := r.result(call, status, text)
	res.RequestType = t
	res.Verdict = &verdict
	res.RecordID = rec.ID
	res.AuditCode = code
	return res
}

func (r *messageRouter) reject(ctx context.Context, call *routeCall, t entity.RequestType, fields map[string]string, verdict entity.ApprovalVerdict) *entity.ProcessingResult {
	code := entity.CodePolicyRejected
	if verdict.FailedValidation != "" {
		code = entity.CodeValidationFailed
	}

	r.closeRequest(ctx, call, t, fields, entity.StatusRejected)

	entry := r.auditEntry(call, code, verdict.Reasoning)
	entry.RequestType = t
	entry.RuleIDs = verdict.RulesEvaluated
	entry.Fields = copyMap(fields)
	entry.Verdict = &verdict
	r.recordAudit(ctx, entry)

	res := r.result(call, entity.StatusRejected, rejectedText(t, verdict, r.Approvals.Policy()))
	res.RequestType = t
	res.Verdict = &verdict
	res.AuditCode = code
	return res
}

// closeRequest ends the dialogue of t and stores the conversation. The
// request is already decided, so a store failure is only logged.
func (r *messageRouter) closeRequest(ctx context.Context, call *routeCall, t entity.RequestType, fields map[string]string, outcome entity.ProcessingStatus) {
	call.conv.CloseSession(t)
	call.conv.RecordIntent(entity.IntentRecord{
		Intent:     entity.Intent(t),
		Fields:     copyMap(fields),
		Confidence: call.confidence,
		Outcome:    outcome,
		Text:       call.msg.Text,
		At:         call.now,
	})
	if err := r.save(ctx, call); err != nil {
		r.Logger.Error("Failed to save conversation after decision",
			"error", err,
			"correlation_id", call.correlationID,
			"user_id", call.msg.UserID,
		)
	}
}

func (r *messageRouter) history(ctx context.Context, call *routeCall) (entity.RequesterHistory, error) {
	if r.Residents == nil {
		return entity.RequesterHistory{}, nil
	}
	since := call.now.AddDate(0, 0, -(r.Approvals.Policy().ViolationLookbackDays + 1))
	violations, err := r.Residents.Violations(ctx, call.msg.UserID, since)
	if err != nil {
		return entity.RequesterHistory{}, fmt.Errorf("load violations: %w", err)
	}
	return entity.RequesterHistory{Violations: violations}, nil
}

// fail turns an error into a failed result. The working conversation copy
// is discarded, so the stored context stays as it was before the message.
func (r *messageRouter) fail(ctx context.Context, call *routeCall, kind entity.FailureKind, cause error) *entity.ProcessingResult {
	code := entity.FailureCode(kind)
	r.Logger.Error("Message processing failed",
		"error", cause,
		"failure", kind,
		"correlation_id", call.correlationID,
		"user_id", call.msg.UserID,
		"message_id", call.msg.ID,
	)

	entry := r.auditEntry(call, code, fmt.Sprintf("%s failure: %v", kind, cause))
	if call.conv != nil {
		if s := call.conv.ActiveSession(); s != nil {
			entry.RequestType = s.Type
			entry.Fields = copyMap(s.Fields)
		}
	}
	r.recordAudit(ctx, entry)

	if kind == entity.FailureExtraction {
		r.dispatch(ctx, event.NewEventWithCorrelation(event.TypeTriageFailure, 0, map[string]interface{}{
			event.KeyRequesterID: call.msg.UserID,
			event.KeyRoomNumber:  call.profile.RoomNumber,
			event.KeyDescription: truncate(call.msg.Text, 200),
			event.KeyReason:      string(kind),
		}, call.correlationID))
	}

	res := r.result(call, entity.StatusFailed, failureText(kind))
	res.AuditCode = code
	return res
}

func (r *messageRouter) auditEntry(call *routeCall, code entity.AuditCode, reasoning string) *entity.AuditEntry {
	return &entity.AuditEntry{
		CorrelationID:  call.correlationID,
		ActorID:        call.msg.UserID,
		ActorRole:      call.msg.UserRole,
		ConversationID: call.conversationID(),
		MessageID:      call.msg.ID,
		Code:           code,
		Reasoning:      reasoning,
		Confidence:     call.confidence,
		CreatedAt:      call.now,
	}
}

// recordAudit appends an entry; the audit service logs its own failures
func (r *messageRouter) recordAudit(ctx context.Context, entry *entity.AuditEntry) {
	_ = r.Audit.Record(ctx, entry)
}

// notifyOutcome queues the staff notification of a created record
func (r *messageRouter) notifyOutcome(ctx context.Context, call *routeCall, t entity.RequestType, rec *entity.RequestRecord, verdict entity.ApprovalVerdict) {
	payload := map[string]interface{}{
		event.KeyRequesterID: rec.RequesterID,
		event.KeyRoomNumber:  rec.RoomNumber,
		event.KeyRequestType: string(t),
		event.KeyConfidence:  verdict.Confidence,
	}
	put := func(key, value string) {
		if value != "" {
			payload[key] = value
		}
	}
	put(event.KeyGuestName, rec.GuestName)
	put(event.KeyStartDate, rec.StartDate)
	put(event.KeyEndDate, rec.EndDate)
	put(event.KeyDescription, rec.Description)
	put(event.KeyLocation, rec.Location)
	put(event.KeyUrgency, rec.Urgency)
	put(event.KeyWorkOrderID, rec.WorkOrderID)
	if verdict.Schedule != nil {
		put(event.KeyScheduled, verdict.Schedule.ScheduledFor)
	}

	evtType := r.handlers[t].approvedEvent
	if verdict.Escalation != nil {
		evtType = event.TypeStaffEscalation
		payload[event.KeyStaffRole] = string(verdict.Escalation.Role)
		payload[event.KeyPriority] = string(verdict.Escalation.Priority)
		payload[event.KeyReason] = verdict.Reasoning
	} else if t == entity.RequestLeave {
		put(event.KeyReason, rec.Description)
	}

	r.dispatch(ctx, event.NewEventWithCorrelation(evtType, rec.ID, payload, call.correlationID))
}

func (r *messageRouter) dispatch(ctx context.Context, evt *event.Event) {
	if r.Dispatcher == nil {
		return
	}
	r.Dispatcher.DispatchAsync(ctx, evt)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
