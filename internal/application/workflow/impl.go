package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/ai"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/dates"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	domainwf "github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/workflow"
)

// correctionRe marks a message that deliberately replaces a confirmed value
var correctionRe = regexp.MustCompile(`(?i)^\s*(?:actually|sorry|correction|i meant|no,?\s+(?:make it|change it|it'?s)|make it|change (?:it|the \w+) to)\b`)

// ownRoomRe matches answers that point at the requester's own room
var ownRoomRe = regexp.MustCompile(`(?i)^\s*(?:my room|in my room|mine|here|my own room|own room)\s*[.!]?\s*$`)

// slotEngine is the concrete implementation of SlotFillingEngine
type slotEngine struct {
	rules *classifier.RuleStore
}

// NewSlotFillingEngine creates a slot filling engine reading name and
// keyword rules from rules
func NewSlotFillingEngine(rules *classifier.RuleStore) SlotFillingEngine {
	if rules == nil {
		rules = classifier.NewRuleStore(nil)
	}
	return &slotEngine{rules: rules}
}

// Advance merges one turn into the session and returns the next question
func (e *slotEngine) Advance(ctx context.Context, in Input) (Turn, error) {
	s := in.Session
	if s == nil {
		return Turn{}, fmt.Errorf("session cannot be nil")
	}
	if !s.Type.Valid() {
		return Turn{}, fmt.Errorf("cannot fill slots for request type %q", s.Type)
	}
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}

	rules := e.rules.Rules()
	initial, trigger := e.resume(s)
	machine := BuildSessionMachine(s.Type, initial, s.Fields)

	if in.Answer && rules.IsCancel(in.Text) {
		return e.cancel(ctx, s, machine), nil
	}

	awaitingBefore := s.AwaitingField()
	m := newMerger(rules, in)
	m.mergeExtracted(in.Extracted)
	if in.Answer {
		m.mergeAnswer(in.Text, awaitingBefore)
	}
	m.deriveDefaults()

	state, err := machine.Fire(ctx, trigger)
	if err != nil {
		return Turn{}, fmt.Errorf("failed to advance %s session: %w", s.Type, err)
	}
	s.Step = state.String()
	s.Pending = missingFields(s.Type, s.Fields)

	turn := Turn{
		State:    state,
		Rejected: m.rejected,
	}

	if state == domainwf.StateComplete {
		turn.Complete = true
		turn.Fields = copyFields(s.Fields)
		return turn, nil
	}

	field, _ := fieldFor(s.Type, state)
	if in.Answer && field == awaitingBefore {
		s.Reasks++
	} else {
		s.Reasks = 0
	}

	turn.Awaiting = field
	turn.Reasks = s.Reasks
	turn.Question = question(s, field, trigger == domainwf.TriggerOpen, m.rejectedFor(field))
	return turn, nil
}

// Cancel ends the session without a request
func (e *slotEngine) Cancel(session *entity.DialogueSession) Turn {
	initial, _ := e.resume(session)
	return e.cancel(context.Background(), session, BuildSessionMachine(session.Type, initial, session.Fields))
}

func (e *slotEngine) cancel(ctx context.Context, s *entity.DialogueSession, machine domainwf.StateMachine) Turn {
	state, err := machine.Fire(ctx, domainwf.TriggerCancel)
	if err != nil {
		state = domainwf.StateCancelled
	}
	s.Step = state.String()
	s.Pending = nil
	return Turn{
		State:     state,
		Cancelled: true,
		Question:  fmt.Sprintf("Okay, I've cancelled your %s request. Nothing was submitted.", s.Type.Noun()),
	}
}

// resume returns the state a session continues from and the trigger to fire
func (e *slotEngine) resume(s *entity.DialogueSession) (domainwf.State, domainwf.Trigger) {
	state, err := domainwf.ParseState(s.Step)
	if err != nil {
		return domainwf.StateIdle, domainwf.TriggerOpen
	}
	if _, ok := fieldFor(s.Type, state); ok {
		return state, domainwf.TriggerAnswer
	}
	return domainwf.StateIdle, domainwf.TriggerOpen
}

// merger applies one turn's values to a session
type merger struct {
	rules      *classifier.Rules
	session    *entity.DialogueSession
	today      time.Time
	profile    entity.ResidentProfile
	correction bool
	rejected   []RejectedValue
	// confirmed holds the fields that were set before this turn
	confirmed map[string]bool
}

func newMerger(rules *classifier.Rules, in Input) *merger {
	confirmed := make(map[string]bool, len(in.Session.Fields))
	for k, v := range in.Session.Fields {
		if v != "" {
			confirmed[k] = true
		}
	}
	return &merger{
		rules:      rules,
		session:    in.Session,
		today:      in.Today,
		profile:    in.Profile,
		correction: correctionRe.MatchString(in.Text),
		confirmed:  confirmed,
	}
}

// set stores a normalised value. Empty slots take any value; a confirmed
// value is replaced only by an explicit correction.
func (m *merger) set(field, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	value, ok := m.normalise(field, raw)
	if !ok {
		return
	}

	if current := m.session.Fields[field]; current != "" {
		if current == value || !m.correction || !m.confirmed[field] {
			return
		}
		if field == entity.FieldStartDate && m.session.Fields[entity.FieldDuration] != "" {
			// the end was derived from the old start
			delete(m.session.Fields, entity.FieldEndDate)
		}
	}
	m.session.Fields[field] = value
}

func (m *merger) reject(field, value, reason string) {
	m.rejected = append(m.rejected, RejectedValue{Field: field, Value: value, Reason: reason})
}

func (m *merger) rejectedFor(field string) *RejectedValue {
	for i := range m.rejected {
		if m.rejected[i].Field == field {
			return &m.rejected[i]
		}
	}
	return nil
}

func (m *merger) normalise(field, value string) (string, bool) {
	switch field {
	case entity.FieldGuestName:
		if m.rules.IsBlacklistedName(value) || !m.rules.LooksLikeName(value) {
			m.reject(field, value, RejectGenericName)
			return "", false
		}
		return titleCase(value), true
	case entity.FieldStartDate, entity.FieldEndDate:
		d, err := m.resolveDate(value)
		if err != nil {
			m.reject(field, value, RejectUnrecognisedDate)
			return "", false
		}
		return dates.Format(d), true
	case entity.FieldDuration:
		span, ok := parseSpan(value)
		if !ok {
			return "", false
		}
		return span.String(), true
	case entity.FieldLocation:
		if ownRoomRe.MatchString(value) && m.profile.RoomNumber != "" {
			return "room " + m.profile.RoomNumber, true
		}
		return value, true
	case entity.FieldRoomNumber:
		if ownRoomRe.MatchString(value) && m.profile.RoomNumber != "" {
			return m.profile.RoomNumber, true
		}
		return strings.ToUpper(strings.TrimPrefix(strings.ToLower(value), "room ")), true
	default:
		return value, true
	}
}

func (m *merger) resolveDate(value string) (time.Time, error) {
	if d, err := dates.Coerce(value, m.profile.Location(time.UTC)); err == nil {
		return d, nil
	}
	return dates.ParseDate(value, m.today)
}

// mergeExtracted merges the extractor's entities for this message
func (m *merger) mergeExtracted(extracted map[string]string) {
	fields := make(map[string]string, len(extracted))
	for k, v := range extracted {
		if v = strings.TrimSpace(v); v != "" {
			fields[ai.AliasField(k)] = v
		}
	}

	// a lone date answering "when will you return" arrives as a start date
	if !m.correction && m.session.AwaitingField() == entity.FieldEndDate &&
		m.confirmed[entity.FieldStartDate] && fields[entity.FieldEndDate] == "" {
		if v, ok := fields[entity.FieldStartDate]; ok {
			delete(fields, entity.FieldStartDate)
			fields[entity.FieldEndDate] = v
		}
	}

	for _, f := range mergeOrder {
		if v, ok := fields[f]; ok {
			m.set(f, v)
		}
	}
}

// mergeOrder puts the start date before anything derived from it
var mergeOrder = []string{
	entity.FieldGuestName,
	entity.FieldStartDate,
	entity.FieldEndDate,
	entity.FieldDuration,
	entity.FieldReason,
	entity.FieldProblemDescription,
	entity.FieldLocation,
	entity.FieldRoomNumber,
	entity.FieldUrgency,
}

// mergeAnswer reads the raw answer text, filling only slots still empty
func (m *merger) mergeAnswer(text, awaiting string) {
	text = strings.TrimSpace(text)
	if text == "" || m.rules.IsAffirm(text) {
		return
	}
	fields := m.session.Fields

	switch awaiting {
	case entity.FieldReason, entity.FieldProblemDescription:
		if fields[awaiting] == "" {
			m.set(awaiting, text)
		}
		return
	case entity.FieldLocation, entity.FieldRoomNumber:
		if fields[awaiting] == "" && (m.rules.LooksLikeLocation(text) || ownRoomRe.MatchString(text)) {
			m.set(awaiting, text)
		}
		return
	}

	dated := m.session.Type == entity.RequestGuest || m.session.Type == entity.RequestLeave
	for _, seg := range classifier.Segments(text) {
		switch classifier.AnswerField(m.rules, seg, m.today) {
		case entity.FieldStartDate:
			if !dated {
				continue
			}
			if fields[entity.FieldStartDate] == "" {
				m.set(entity.FieldStartDate, seg)
			} else if fields[entity.FieldEndDate] == "" && !m.sameDate(seg, fields[entity.FieldStartDate]) {
				m.set(entity.FieldEndDate, seg)
			}
		case entity.FieldDuration:
			if dated && fields[entity.FieldEndDate] == "" && fields[entity.FieldDuration] == "" {
				m.set(entity.FieldDuration, seg)
			}
		case entity.FieldGuestName:
			if m.session.Type == entity.RequestGuest && fields[entity.FieldGuestName] == "" {
				m.set(entity.FieldGuestName, seg)
			}
		case entity.FieldLocation:
			switch m.session.Type {
			case entity.RequestMaintenance:
				if fields[entity.FieldLocation] == "" {
					m.set(entity.FieldLocation, seg)
				}
			case entity.RequestRoomCleaning:
				if fields[entity.FieldRoomNumber] == "" {
					m.set(entity.FieldRoomNumber, seg)
				}
			}
		}
	}

	if awaiting == entity.FieldGuestName && fields[entity.FieldGuestName] == "" && m.rejectedFor(awaiting) == nil &&
		classifier.TokenCount(text) <= 3 && m.rules.IsBlacklistedName(text) {
		m.reject(awaiting, text, RejectGenericName)
	}
}

func (m *merger) sameDate(seg, stored string) bool {
	d, err := dates.ParseDate(seg, m.today)
	return err == nil && dates.Format(d) == stored
}

// deriveDefaults fills slots that follow from other values: an end date
// from start plus duration, and the requester's room for maintenance and cleaning
func (m *merger) deriveDefaults() {
	fields := m.session.Fields

	if fields[entity.FieldEndDate] == "" && fields[entity.FieldDuration] != "" && fields[entity.FieldStartDate] != "" {
		if span, ok := parseSpan(fields[entity.FieldDuration]); ok {
			if start, err := time.Parse(dates.Layout, fields[entity.FieldStartDate]); err == nil {
				fields[entity.FieldEndDate] = dates.Format(span.End(start))
			}
		}
	}

	if m.profile.RoomNumber == "" {
		return
	}
	switch m.session.Type {
	case entity.RequestMaintenance:
		if fields[entity.FieldLocation] == "" && fields[entity.FieldProblemDescription] != "" {
			fields[entity.FieldLocation] = "room " + m.profile.RoomNumber
		}
	case entity.RequestRoomCleaning:
		if fields[entity.FieldRoomNumber] == "" {
			fields[entity.FieldRoomNumber] = m.profile.RoomNumber
		}
	}
}

// parseSpan reads a duration phrase; a bare number counts days
func parseSpan(value string) (dates.Span, bool) {
	if span, err := dates.ParseDuration(value); err == nil {
		return span, true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 {
		return dates.Span{Days: n}, true
	}
	return dates.Span{}, false
}

func missingFields(t entity.RequestType, fields map[string]string) []string {
	return entity.MissingFields(t, fields)
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func titleCase(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
