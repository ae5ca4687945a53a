package entity

import (
	"fmt"
	"time"
)

// maxIntentHistory bounds the intent history kept per conversation
const maxIntentHistory = 10

// IntentRecord is one past turn kept in the conversation history
type IntentRecord struct {
	Intent     Intent            `json:"intent"`
	Fields     map[string]string `json:"fields,omitempty"`
	Confidence float64           `json:"confidence"`
	Outcome    ProcessingStatus  `json:"outcome,omitempty"`
	Text       string            `json:"text,omitempty"`
	At         time.Time         `json:"at"`
}

// DialogueSession tracks a partially specified request of one type
type DialogueSession struct {
	Type     RequestType       `json:"type"`
	Step     string            `json:"step"`
	Fields   map[string]string `json:"fields"`
	Pending  []string          `json:"pending"`
	Reasks   int               `json:"reasks"`
	OpenedAt time.Time         `json:"opened_at"`
}

// AwaitingField returns the field the session is currently asking for
func (s *DialogueSession) AwaitingField() string {
	if s == nil || len(s.Pending) == 0 {
		return ""
	}
	return s.Pending[0]
}

func (s *DialogueSession) clone() *DialogueSession {
	if s == nil {
		return nil
	}
	fields := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	return &DialogueSession{
		Type:     s.Type,
		Step:     s.Step,
		Fields:   fields,
		Pending:  append([]string(nil), s.Pending...),
		Reasks:   s.Reasks,
		OpenedAt: s.OpenedAt,
	}
}

// ConversationContext is the per-user dialogue state kept between messages
type ConversationContext struct {
	UserID         string                           `json:"user_id"`
	UserRole       UserRole                         `json:"user_role"`
	ConversationID string                           `json:"conversation_id"`
	IntentHistory  []IntentRecord                   `json:"intent_history"`
	Sessions       map[RequestType]*DialogueSession `json:"sessions"`
	ActiveType     RequestType                      `json:"active_type,omitempty"`
	CreatedAt      time.Time                        `json:"created_at"`
	LastActivity   time.Time                        `json:"last_activity"`
}

// ConversationKey derives the stable conversation id of a user
func ConversationKey(role UserRole, userID string) string {
	return fmt.Sprintf("%s:%s", role, userID)
}

// NewConversationContext creates an empty context for a user
func NewConversationContext(userID string, role UserRole, now time.Time) *ConversationContext {
	return &ConversationContext{
		UserID:         userID,
		UserRole:       role,
		ConversationID: ConversationKey(role, userID),
		Sessions:       make(map[RequestType]*DialogueSession),
		CreatedAt:      now,
		LastActivity:   now,
	}
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}

	history := make([]IntentRecord, len(c.IntentHistory))
	for i, rec := range c.IntentHistory {
		fields := make(map[string]string, len(rec.Fields))
		for k, v := range rec.Fields {
			fields[k] = v
		}
		rec.Fields = fields
		history[i] = rec
	}

	sessions := make(map[RequestType]*DialogueSession, len(c.Sessions))
	for t, s := range c.Sessions {
		sessions[t] = s.clone()
	}

	return &ConversationContext{
		UserID:         c.UserID,
		UserRole:       c.UserRole,
		ConversationID: c.ConversationID,
		IntentHistory:  history,
		Sessions:       sessions,
		ActiveType:     c.ActiveType,
		CreatedAt:      c.CreatedAt,
		LastActivity:   c.LastActivity,
	}
}

// Expired reports whether the context has been inactive for longer than ttl
func (c *ConversationContext) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.LastActivity) > ttl
}

// Touch records activity at now
func (c *ConversationContext) Touch(now time.Time) {
	c.LastActivity = now
}

// ActiveSession returns the session of the active request type, if any
func (c *ConversationContext) ActiveSession() *DialogueSession {
	if c == nil || c.ActiveType == "" {
		return nil
	}
	return c.Sessions[c.ActiveType]
}

// PendingFields returns the missing fields of the active session
func (c *ConversationContext) PendingFields() []string {
	s := c.ActiveSession()
	if s == nil {
		return nil
	}
	return s.Pending
}

// HasOpenDialogue reports whether a session is waiting for an answer
func (c *ConversationContext) HasOpenDialogue() bool {
	return len(c.PendingFields()) > 0
}

// OpenSession starts (or restarts) the session for t and makes it active
func (c *ConversationContext) OpenSession(t RequestType, now time.Time) *DialogueSession {
	if c.Sessions == nil {
		c.Sessions = make(map[RequestType]*DialogueSession)
	}
	s := &DialogueSession{
		Type:     t,
		Fields:   make(map[string]string),
		OpenedAt: now,
	}
	c.Sessions[t] = s
	c.ActiveType = t
	return s
}

// Session returns the open session for t, if any
func (c *ConversationContext) Session(t RequestType) *DialogueSession {
	if c.Sessions == nil {
		return nil
	}
	return c.Sessions[t]
}

// CloseSession removes the session of t after completion or cancellation
func (c *ConversationContext) CloseSession(t RequestType) {
	delete(c.Sessions, t)
	if c.ActiveType == t {
		c.ActiveType = ""
	}
}

// ClearDialogue drops every open session, keeping the intent history
func (c *ConversationContext) ClearDialogue() {
	c.Sessions = make(map[RequestType]*DialogueSession)
	c.ActiveType = ""
}

// RecordIntent appends a turn to the history, keeping the newest entries
func (c *ConversationContext) RecordIntent(rec IntentRecord) {
	c.IntentHistory = append(c.IntentHistory, rec)
	if len(c.IntentHistory) > maxIntentHistory {
		c.IntentHistory = c.IntentHistory[len(c.IntentHistory)-maxIntentHistory:]
	}
}

// LastTerminal returns the most recent turn that ended a request
func (c *ConversationContext) LastTerminal() (IntentRecord, bool) {
	for i := len(c.IntentHistory) - 1; i >= 0; i-- {
		rec := c.IntentHistory[i]
		switch rec.Outcome {
		case StatusSuccess, StatusEscalated, StatusRejected:
			if _, ok := rec.Intent.RequestType(); ok {
				return rec, true
			}
		}
	}
	return IntentRecord{}, false
}

// RecentTurns returns up to n of the newest history entries
func (c *ConversationContext) RecentTurns(n int) []IntentRecord {
	if n <= 0 || len(c.IntentHistory) == 0 {
		return nil
	}
	if len(c.IntentHistory) <= n {
		return append([]IntentRecord(nil), c.IntentHistory...)
	}
	return append([]IntentRecord(nil), c.IntentHistory[len(c.IntentHistory)-n:]...)
}
