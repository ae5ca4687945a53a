package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/dispatcher"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/workflow"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/approval"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/dates"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/event"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

const (
	// recentWindow is how far back request history is given to the extractor
	recentWindow = 30 * 24 * time.Hour
	contextTurns = 5
	// dialogueConfidence is reported for requests completed over several turns
	dialogueConfidence = 0.9
)

// MessageRouter is the single entry point for inbound messages
type MessageRouter interface {
	// SubmitMessage routes one message and always returns a result.
	// Failures are reported through the result status, never as raw errors.
	SubmitMessage(ctx context.Context, userID string, role entity.UserRole, text string) *entity.ProcessingResult
}

// RouterDeps are the collaborators of the router. Residents, Messages and
// Dispatcher are optional.
type RouterDeps struct {
	Classifier *classifier.Classifier
	Extractor  port.EntityExtractor
	Gate       ai.ConfidenceGate
	Slots      workflow.SlotFillingEngine
	Approvals  *approval.Engine
	Handbook   *approval.Handbook

	Store  port.ConversationStore
	Locker port.Locker

	Records    port.RecordRepository
	Residents  port.ResidentRepository
	Messages   port.MessageRepository
	Audit      AuditService
	Dispatcher dispatcher.Dispatcher

	Logger Logger
	// Location is the zone used for residents without a profile timezone
	Location *time.Location
	Clock    func() time.Time
}

// requestHandler holds what differs per request type once a request is decided
type requestHandler struct {
	approvedEvent event.Type
	approvedText  func(rec *entity.RequestRecord, v entity.ApprovalVerdict) string
}

func requestHandlers() map[entity.RequestType]requestHandler {
	return map[entity.RequestType]requestHandler{
		entity.RequestGuest:        {event.TypeGuestApproved, guestApprovedText},
		entity.RequestLeave:        {event.TypeLeaveApproved, leaveApprovedText},
		entity.RequestMaintenance:  {event.TypeMaintenanceScheduled, maintenanceApprovedText},
		entity.RequestRoomCleaning: {event.TypeCleaningScheduled, cleaningApprovedText},
	}
}

type messageRouter struct {
	RouterDeps
	handlers map[entity.RequestType]requestHandler
}

// NewMessageRouter creates a MessageRouter. Every request type must have a handler.
func NewMessageRouter(deps RouterDeps) (MessageRouter, error) {
	switch {
	case deps.Classifier == nil:
		return nil, fmt.Errorf("router needs a classifier")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("router needs an entity extractor")
	case deps.Slots == nil:
		return nil, fmt.Errorf("router needs a slot filling engine")
	case deps.Approvals == nil:
		return nil, fmt.Errorf("router needs an approval engine")
	case deps.Store == nil || deps.Locker == nil:
		return nil, fmt.Errorf("router needs a conversation store and locker")
	case deps.Records == nil:
		return nil, fmt.Errorf("router needs a record repository")
	case deps.Audit == nil:
		return nil, fmt.Errorf("router needs an audit service")
	case deps.Logger == nil:
		return nil, fmt.Errorf("router needs a logger")
	}
	if err := deps.Gate.Validate(); err != nil {
		return nil, fmt.Errorf("invalid confidence gate: %w", err)
	}
	if deps.Handbook == nil {
		deps.Handbook = approval.NewHandbook(deps.Approvals.Policy())
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	handlers := requestHandlers()
	for _, t := range entity.RequestTypes() {
		if _, ok := handlers[t]; !ok {
			return nil, fmt.Errorf("no handler registered for request type %s", t)
		}
	}

	return &messageRouter{RouterDeps: deps, handlers: handlers}, nil
}

// routeCall is the state of one SubmitMessage call
type routeCall struct {
	msg           *entity.InboundMessage
	correlationID string
	now           time.Time
	loc           *time.Location
	today         time.Time
	profile       entity.ResidentProfile
	// conv is the working copy; it is stored only when the turn succeeds
	conv       *entity.ConversationContext
	decision   classifier.Decision
	confidence float64
	tracked    bool
}

func (c *routeCall) conversationID() string {
	if c.conv != nil {
		return c.conv.ConversationID
	}
	return ""
}

// SubmitMessage routes one message
func (r *messageRouter) SubmitMessage(ctx context.Context, userID string, role entity.UserRole, text string) *entity.ProcessingResult {
	now := r.Clock()
	call := &routeCall{
		correlationID: uuid.NewString(),
		now:           now,
		loc:           r.Location,
		msg: &entity.InboundMessage{
			ID:         uuid.NewString(),
			UserID:     userID,
			UserRole:   role,
			Text:       utils.SanitizeString(text),
			Status:     entity.MessageReceived,
			ReceivedAt: now,
		},
	}

	if err := validateMessage(call.msg); err != nil {
		return r.fail(ctx, call, entity.FailureInvalidInput, err)
	}
	r.trackMessage(ctx, call)

	key := entity.ConversationKey(role, userID)
	unlock := r.Locker.Lock(key)
	defer unlock()

	conv, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		result := r.fail(ctx, call, entity.FailurePersistence, fmt.Errorf("load conversation: %w", err))
		result.ConversationID = key
		r.finishMessage(ctx, call, result)
		return result
	}
	if !ok {
		conv = entity.NewConversationContext(userID, role, now)
	}
	call.conv = conv

	r.loadProfile(ctx, call)

	result := r.route(ctx, call)
	r.finishMessage(ctx, call, result)

	r.Logger.Info("Message routed",
		"correlation_id", call.correlationID,
		"user_id", userID,
		"classification", call.decision.Kind,
		"status", result.Status,
		"audit_code", result.AuditCode,
	)
	return result
}

func validateMessage(msg *entity.InboundMessage) error {
	if err := utils.ValidateUserID(msg.UserID); err != nil {
		return err
	}
	if !msg.UserRole.Valid() {
		return fmt.Errorf("invalid user role: %q", msg.UserRole)
	}
	return utils.ValidateMessageText(msg.Text)
}

func (r *messageRouter) route(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	call.decision = r.Classifier.Classify(call.msg.Text, call.conv, call.now.In(call.loc))
	r.logDecision(call)

	switch call.decision.Kind {
	case classifier.KindClarification:
		if call.decision.Reason == classifier.ReasonCancel {
			return r.cancelDialogue(ctx, call)
		}
		return r.continueDialogue(ctx, call)
	case classifier.KindFollowUp:
		return r.followUp(ctx, call)
	case classifier.KindNewRequest:
		if call.decision.ClearDialogue {
			call.conv.ClearDialogue()
		}
		return r.newRequest(ctx, call)
	default:
		return r.unclear(ctx, call)
	}
}

func (r *messageRouter) logDecision(call *routeCall) {
	kv := []interface{}{
		"correlation_id", call.correlationID,
		"user_id", call.msg.UserID,
		"classification", call.decision.Kind,
		"reason", call.decision.Reason,
	}
	if call.decision.Signal != "" {
		kv = append(kv, "signal", call.decision.Signal)
	}
	if s := call.conv.ActiveSession(); s != nil {
		kv = append(kv, "open_type", s.Type, "awaiting", s.AwaitingField())
	}
	r.Logger.Info("Message classified", kv...)
}

func (r *messageRouter) newRequest(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	result, err := r.extract(ctx, call)
	if err != nil {
		return r.fail(ctx, call, entity.FailureExtraction, err)
	}

	gate := r.Gate.Assess(result, len(result.MissingFields) == 0)
	r.Logger.Info("Extraction assessed",
		"correlation_id", call.correlationID,
		"intent", result.Intent,
		"confidence", result.Confidence,
		"gate", gate.Outcome,
		"rationale", gate.Rationale,
	)
	if gate.Outcome == ai.GateUnclear {
		return r.unclear(ctx, call)
	}

	switch result.Intent {
	case entity.IntentRuleInquiry:
		return r.explainRules(ctx, call)
	case entity.IntentGeneralQuery:
		return r.reply(ctx, call, entity.StatusSuccess, greetingText, false)
	}

	t, ok := result.Intent.RequestType()
	if !ok {
		return r.unclear(ctx, call)
	}

	// a message restating an open request of the same type continues it
	session := call.conv.Session(t)
	continuing := session != nil
	if continuing {
		call.conv.ActiveType = t
	} else {
		session = call.conv.OpenSession(t, call.now)
	}
	return r.advance(ctx, call, session, result, false, continuing)
}

func (r *messageRouter) continueDialogue(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	session := call.conv.ActiveSession()
	if session == nil {
		return r.newRequest(ctx, call)
	}

	result, err := r.extract(ctx, call)
	if err != nil {
		return r.fail(ctx, call, entity.FailureExtraction, err)
	}
	return r.advance(ctx, call, session, result, true, true)
}

func (r *messageRouter) advance(ctx context.Context, call *routeCall, session *entity.DialogueSession, result entity.IntentResult, answer, continuing bool) *entity.ProcessingResult {
	turn, err := r.Slots.Advance(ctx, workflow.Input{
		Session:   session,
		Extracted: sessionEntities(session.Type, result.Entities),
		Text:      call.msg.Text,
		Answer:    answer,
		Profile:   call.profile,
		Today:     call.today,
	})
	if err != nil {
		return r.fail(ctx, call, entity.FailureInternal, err)
	}

	for _, rej := range turn.Rejected {
		entry := r.auditEntry(call, entity.CodeSlotValueRejected,
			fmt.Sprintf("%s value %q rejected: %s", rej.Field, rej.Value, rej.Reason))
		entry.RequestType = session.Type
		entry.Fields = copyMap(session.Fields)
		r.recordAudit(ctx, entry)
	}

	switch {
	case turn.Cancelled:
		return r.finishCancelled(ctx, call, session, turn)
	case turn.Complete:
		if continuing {
			call.confidence = dialogueConfidence
		}
		return r.decide(ctx, call, session.Type, turn.Fields)
	}

	call.conv.RecordIntent(entity.IntentRecord{
		Intent:     entity.Intent(session.Type),
		Fields:     copyMap(session.Fields),
		Confidence: result.Confidence,
		Outcome:    entity.StatusRequiresClarification,
		Text:       call.msg.Text,
		At:         call.now,
	})
	if err := r.save(ctx, call); err != nil {
		return r.fail(ctx, call, entity.FailurePersistence, err)
	}

	res := r.result(call, entity.StatusRequiresClarification, turn.Question)
	res.RequiresFollowUp = true
	res.RequestType = session.Type
	return res
}

func (r *messageRouter) cancelDialogue(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	session := call.conv.ActiveSession()
	if session == nil {
		return r.unclear(ctx, call)
	}
	return r.finishCancelled(ctx, call, session, r.Slots.Cancel(session))
}

func (r *messageRouter) finishCancelled(ctx context.Context, call *routeCall, session *entity.DialogueSession, turn workflow.Turn) *entity.ProcessingResult {
	fields := copyMap(session.Fields)
	call.conv.CloseSession(session.Type)
	if err := r.save(ctx, call); err != nil {
		return r.fail(ctx, call, entity.FailurePersistence, err)
	}

	entry := r.auditEntry(call, entity.CodeCancelled, fmt.Sprintf("%s request cancelled by the resident", session.Type.Noun()))
	entry.RequestType = session.Type
	entry.Fields = fields
	r.recordAudit(ctx, entry)

	res := r.result(call, entity.StatusSuccess, turn.Question)
	res.RequestType = session.Type
	res.AuditCode = entity.CodeCancelled
	return res
}

func (r *messageRouter) followUp(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	last, _ := call.conv.LastTerminal()
	return r.reply(ctx, call, entity.StatusSuccess, followUpText(last), false)
}

func (r *messageRouter) explainRules(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	topic, text := r.Handbook.Explain(call.msg.Text)
	r.Logger.Info("Answered rule inquiry", "correlation_id", call.correlationID, "topic", topic)
	return r.reply(ctx, call, entity.StatusSuccess, text, false)
}

func (r *messageRouter) unclear(ctx context.Context, call *routeCall) *entity.ProcessingResult {
	return r.reply(ctx, call, entity.StatusRequiresClarification, unclearText, true)
}

// reply answers without touching any request and keeps the conversation alive
func (r *messageRouter) reply(ctx context.Context, call *routeCall, status entity.ProcessingStatus, text string, followUp bool) *entity.ProcessingResult {
	if err := r.save(ctx, call); err != nil {
		return r.fail(ctx, call, entity.FailurePersistence, err)
	}
	res := r.result(call, status, text)
	res.RequiresFollowUp = followUp
	return res
}

// extract calls the entity extractor with the requester's context bundle
func (r *messageRouter) extract(ctx context.Context, call *routeCall) (entity.IntentResult, error) {
	uc := entity.UserContext{
		Profile:     call.profile,
		Today:       dates.Format(call.today),
		Weekday:     call.today.Weekday().String(),
		RecentTurns: call.conv.RecentTurns(contextTurns),
	}
	if s := call.conv.ActiveSession(); s != nil {
		uc.ActiveType = s.Type
		uc.AwaitingField = s.AwaitingField()
		uc.KnownFields = copyMap(s.Fields)
	}

	recent, err := r.Records.ListRecent(ctx, call.msg.UserID, call.now.Add(-recentWindow))
	if err != nil {
		r.Logger.Warn("Failed to load recent requests", "error", err, "user_id", call.msg.UserID)
	} else {
		uc.RecentRequests = recent
	}

	result, err := r.Extractor.Extract(ctx, call.msg.Text, uc)
	if err != nil {
		return entity.IntentResult{}, fmt.Errorf("extract entities: %w", err)
	}
	call.confidence = result.Confidence
	return result, nil
}

func (r *messageRouter) loadProfile(ctx context.Context, call *routeCall) {
	call.profile = entity.ResidentProfile{UserID: call.msg.UserID}
	if r.Residents != nil {
		p, err := r.Residents.GetProfile(ctx, call.msg.UserID)
		switch {
		case err == nil && p != nil:
			call.profile = *p
		case err != nil && !errors.Is(err, port.ErrNotFound):
			r.Logger.Warn("Failed to load resident profile", "error", err, "user_id", call.msg.UserID)
		}
	}
	call.loc = call.profile.Location(r.Location)
	call.today = dates.Civil(call.now, call.loc)
}

func (r *messageRouter) save(ctx context.Context, call *routeCall) error {
	call.conv.Touch(call.now)
	if err := r.Store.Put(ctx, call.conv); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (r *messageRouter) result(call *routeCall, status entity.ProcessingStatus, text string) *entity.ProcessingResult {
	return &entity.ProcessingResult{
		Status:         status,
		ResponseText:   text,
		Confidence:     call.confidence,
		ConversationID: call.conversationID(),
		CorrelationID:  call.correlationID,
		Classification: string(call.decision.Kind),
	}
}

func (r *messageRouter) trackMessage(ctx context.Context, call *routeCall) {
	if r.Messages == nil {
		return
	}
	call.msg.Status = entity.MessageProcessing
	if err := r.Messages.Create(ctx, call.msg); err != nil {
		r.Logger.Warn("Failed to record inbound message", "error", err, "message_id", call.msg.ID)
		return
	}
	call.tracked = true
}

func (r *messageRouter) finishMessage(ctx context.Context, call *routeCall, result *entity.ProcessingResult) {
	if !call.tracked {
		return
	}
	status, errMsg := entity.MessageProcessed, ""
	if result.Status == entity.StatusFailed {
		status, errMsg = entity.MessageFailed, string(result.AuditCode)
	}
	call.msg.Status = status
	if err := r.Messages.UpdateStatus(ctx, call.msg.ID, status, errMsg); err != nil {
		r.Logger.Warn("Failed to update message status", "error", err, "message_id", call.msg.ID)
	}
}

// sessionEntities keeps the extracted values that belong to a request type
func sessionEntities(t entity.RequestType, entities map[string]string) map[string]string {
	allowed := map[string]bool{entity.FieldDuration: true, entity.FieldUrgency: true}
	for _, f := range entity.RequiredFields(t) {
		allowed[f] = true
	}

	out := make(map[string]string, len(entities))
	for k, v := range entities {
		if f := ai.AliasField(k); allowed[f] {
			out[f] = v
		}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
