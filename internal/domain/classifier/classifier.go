// Package classifier decides whether a message opens a new request, answers
// the question of an open dialogue, or asks about an earlier outcome.
package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/dates"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// Kind is the classification of one message
type Kind string

const (
	KindNewRequest    Kind = "NEW_REQUEST"
	KindClarification Kind = "CLARIFICATION"
	KindFollowUp      Kind = "FOLLOW_UP"
	KindUnknown       Kind = "UNKNOWN"
)

// Reasons recorded with a decision
const (
	ReasonEmptyMessage     = "empty_message"
	ReasonNoDialogue       = "no_open_dialogue"
	ReasonStatusQuestion   = "status_question"
	ReasonAnswerShape      = "answer_shape"
	ReasonCancel           = "cancel"
	ReasonNewRequestSignal = "new_request_signal"
	ReasonLongMessage      = "long_message"
	ReasonUnmatchedAnswer  = "unmatched_answer"
)

// Decision is the classification plus what produced it
type Decision struct {
	Kind   Kind
	Reason string
	// Signal is the keyword that matched, when a keyword rule decided
	Signal string
	// ClearDialogue is set when the open dialogue must be abandoned
	ClearDialogue bool
}

// Classifier applies the classification rules held by a RuleStore
type Classifier struct {
	store *RuleStore
}

// New creates a classifier reading the active rules from store
func New(store *RuleStore) *Classifier {
	if store == nil {
		store = NewRuleStore(nil)
	}
	return &Classifier{store: store}
}

// Rules returns the rules currently in force
func (c *Classifier) Rules() *Rules {
	return c.store.Rules()
}

// Classify classifies text against the conversation state, which may be nil.
// now anchors relative date expressions when checking answer shapes.
func (c *Classifier) Classify(text string, conv *entity.ConversationContext, now time.Time) Decision {
	rules := c.store.Rules()
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Decision{Kind: KindUnknown, Reason: ReasonEmptyMessage}
	}

	if conv == nil || !conv.HasOpenDialogue() {
		if conv != nil && rules.IsFollowUp(trimmed) && rules.NewRequestSignal(trimmed) == "" {
			if _, ok := conv.LastTerminal(); ok {
				return Decision{Kind: KindFollowUp, Reason: ReasonStatusQuestion}
			}
		}
		return Decision{Kind: KindNewRequest, Reason: ReasonNoDialogue}
	}

	tokens := TokenCount(trimmed)
	short := tokens <= rules.set.MaxClarificationTokens

	if short && rules.IsCancel(trimmed) {
		return Decision{Kind: KindClarification, Reason: ReasonCancel}
	}

	awaiting := conv.ActiveSession().AwaitingField()
	if short && MatchesShape(rules, awaiting, trimmed, dates.Civil(now, now.Location())) {
		return Decision{Kind: KindClarification, Reason: ReasonAnswerShape}
	}

	if signal := rules.NewRequestSignal(trimmed); signal != "" {
		return Decision{Kind: KindNewRequest, Reason: ReasonNewRequestSignal, Signal: signal, ClearDialogue: true}
	}

	if !short {
		return Decision{Kind: KindNewRequest, Reason: ReasonLongMessage}
	}
	return Decision{Kind: KindNewRequest, Reason: ReasonUnmatchedAnswer}
}

// MatchesShape reports whether text has the lexical shape of an answer for field.
// A comma separated answer ("Sam, tomorrow, 2 hours") matches when one segment
// answers field and every other segment answers some field.
func MatchesShape(rules *Rules, field, text string, today time.Time) bool {
	if rules.IsAffirm(text) {
		return true
	}

	segments := Segments(text)
	if len(segments) > 1 {
		answered := false
		for _, seg := range segments {
			if segmentShape(rules, field, seg, today) {
				answered = true
				continue
			}
			if AnswerField(rules, seg, today) == "" {
				return false
			}
		}
		return answered
	}

	return segmentShape(rules, field, text, today)
}

// AnswerField returns which kind of field a bare answer segment looks like:
// a start date, a duration, a guest name, a location, or "" when none fit.
func AnswerField(rules *Rules, segment string, today time.Time) string {
	if _, err := dates.ParseDate(segment, today); err == nil {
		return entity.FieldStartDate
	}
	if _, err := dates.ParseDuration(segment); err == nil {
		return entity.FieldDuration
	}
	if rules.LooksLikeLocation(segment) {
		return entity.FieldLocation
	}
	if rules.LooksLikeName(segment) {
		return entity.FieldGuestName
	}
	return ""
}

var (
	segmentSplit = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*`)
	segmentLead  = regexp.MustCompile(`(?i)^(?:for|on|from|at|by|until|till)\s+`)
)

// Segments splits a compound answer on commas, semicolons and "and",
// dropping leading prepositions ("for 2 hours" becomes "2 hours").
func Segments(text string) []string {
	parts := segmentSplit.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(segmentLead.ReplaceAllString(strings.TrimSpace(p), ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func segmentShape(rules *Rules, field, text string, today time.Time) bool {
	switch field {
	case entity.FieldGuestName:
		return rules.LooksLikeName(text) && !isTemporal(text, today)
	case entity.FieldStartDate:
		_, err := dates.ParseDate(text, today)
		return err == nil
	case entity.FieldEndDate, entity.FieldDuration:
		return isTemporal(text, today)
	case entity.FieldLocation, entity.FieldRoomNumber:
		return rules.LooksLikeLocation(text)
	case entity.FieldReason, entity.FieldProblemDescription:
		return !rules.IsFollowUp(text)
	default:
		return false
	}
}

func isTemporal(text string, today time.Time) bool {
	if _, err := dates.ParseDate(text, today); err == nil {
		return true
	}
	_, err := dates.ParseDuration(text)
	return err == nil
}
