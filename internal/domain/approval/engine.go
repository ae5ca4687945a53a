// Package approval decides complete requests against hostel policy.
// Evaluate is a pure function of its input: the same request facts and
// history always produce the same verdict.
package approval

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/dates"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// ReasonDurationOrViolation is the escalation reason code for leave and guest requests
const ReasonDurationOrViolation = "duration_or_violation"

// Policy holds the tunable limits of the rule table
type Policy struct {
	MaxLeaveDays          int      `mapstructure:"max_leave_days"`
	MaxGuestNights        int      `mapstructure:"max_guest_nights"`
	ViolationLookbackDays int      `mapstructure:"violation_lookback_days"`
	MaxDurationDays       int      `mapstructure:"max_duration_days"`
	HighUrgencyWords      []string `mapstructure:"high_urgency_words"`
	MediumUrgencyWords    []string `mapstructure:"medium_urgency_words"`
}

// DefaultPolicy returns the standard hostel limits
func DefaultPolicy() Policy {
	return Policy{
		MaxLeaveDays:          2,
		MaxGuestNights:        1,
		ViolationLookbackDays: 30,
		MaxDurationDays:       30,
		HighUrgencyWords:      []string{"broken", "emergency", "leak"},
		MediumUrgencyWords:    []string{"problem", "issue"},
	}
}

// Input is everything a verdict depends on
type Input struct {
	Type        entity.RequestType
	RequesterID string
	Fields      map[string]string
	History     entity.RequesterHistory
	// AsOf is the evaluation instant; Location is the requester's zone
	AsOf       time.Time
	Location   *time.Location
	Confidence float64
}

// Engine evaluates requests with a compiled rule table
type Engine struct {
	policy Policy
	rules  []compiledRule
	high   *regexp.Regexp
	medium *regexp.Regexp
}

// NewEngine compiles the default rule table under policy
func NewEngine(policy Policy) (*Engine, error) {
	return NewEngineWithRules(policy, DefaultRules())
}

// NewEngineWithRules compiles a custom rule table under policy
func NewEngineWithRules(policy Policy, rules []Rule) (*Engine, error) {
	def := DefaultPolicy()
	if policy.MaxLeaveDays <= 0 {
		policy.MaxLeaveDays = def.MaxLeaveDays
	}
	if policy.MaxGuestNights <= 0 {
		policy.MaxGuestNights = def.MaxGuestNights
	}
	if policy.ViolationLookbackDays <= 0 {
		policy.ViolationLookbackDays = def.ViolationLookbackDays
	}
	if policy.MaxDurationDays <= 0 {
		policy.MaxDurationDays = def.MaxDurationDays
	}
	if len(policy.HighUrgencyWords) == 0 {
		policy.HighUrgencyWords = def.HighUrgencyWords
	}
	if len(policy.MediumUrgencyWords) == 0 {
		policy.MediumUrgencyWords = def.MediumUrgencyWords
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create rule environment: %w", err)
	}
	compiled, err := compileRules(env, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return &Engine{
		policy: policy,
		rules:  compiled,
		high:   wordMatcher(policy.HighUrgencyWords),
		medium: wordMatcher(policy.MediumUrgencyWords),
	}, nil
}

// Policy returns the limits the engine enforces
func (e *Engine) Policy() Policy {
	return e.policy
}

// facts are the derived values the rule predicates see
type facts struct {
	today           time.Time
	start, end      time.Time
	hasStart        bool
	hasEnd          bool
	rawDays         int
	days            int
	startOffset     int
	recentViolation bool
}

func (e *Engine) derive(in Input) facts {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	f := facts{today: dates.Civil(in.AsOf, loc)}

	if v := in.Fields[entity.FieldStartDate]; v != "" {
		if d, err := dates.Coerce(v, loc); err == nil {
			f.start, f.hasStart = d, true
		}
	}
	if v := in.Fields[entity.FieldEndDate]; v != "" {
		if d, err := dates.Coerce(v, loc); err == nil {
			f.end, f.hasEnd = d, true
		}
	}

	if f.hasStart {
		f.startOffset = dates.CalendarDays(f.today, f.start)
		if f.hasEnd {
			f.rawDays = dates.CalendarDays(f.start, f.end)
		}
	}
	f.days = f.rawDays
	if f.days < 1 {
		f.days = 1
	}

	for _, v := range in.History.Violations {
		ago := dates.CalendarDays(dates.Civil(v, loc), f.today)
		if ago >= 0 && ago <= e.policy.ViolationLookbackDays {
			f.recentViolation = true
			break
		}
	}
	return f
}

func (e *Engine) vars(f facts) map[string]any {
	return map[string]any{
		"days":              int64(f.days),
		"raw_days":          int64(f.rawDays),
		"start_offset":      int64(f.startOffset),
		"has_start":         f.hasStart,
		"has_end":           f.hasEnd,
		"recent_violation":  f.recentViolation,
		"max_leave_days":    int64(e.policy.MaxLeaveDays),
		"max_guest_nights":  int64(e.policy.MaxGuestNights),
		"max_duration_days": int64(e.policy.MaxDurationDays),
	}
}

// Evaluate applies the rule table to one complete request
func (e *Engine) Evaluate(in Input) (entity.ApprovalVerdict, error) {
	if !in.Type.Valid() {
		return entity.ApprovalVerdict{}, fmt.Errorf("cannot evaluate request type %q", in.Type)
	}

	f := e.derive(in)
	vars := e.vars(f)

	verdict := entity.ApprovalVerdict{
		RulesEvaluated: []string{},
		RulesFired:     []string{},
		Confidence:     in.Confidence,
	}

	var failedGuards []string
	for _, r := range e.rules {
		if !r.appliesTo(in.Type) {
			continue
		}
		if r.Kind != KindValidation && verdict.FailedValidation != "" {
			break
		}

		ok, err := r.eval(vars)
		if err != nil {
			return entity.ApprovalVerdict{}, err
		}
		verdict.RulesEvaluated = append(verdict.RulesEvaluated, r.ID)

		switch {
		case r.Kind == KindAction:
			verdict.RulesFired = append(verdict.RulesFired, r.ID)
		case !ok && r.Kind == KindValidation:
			verdict.RulesFired = append(verdict.RulesFired, r.ID)
			if verdict.FailedValidation == "" {
				verdict.FailedValidation = r.ID
			}
		case !ok:
			verdict.RulesFired = append(verdict.RulesFired, r.ID)
			failedGuards = append(failedGuards, r.ID)
		}
	}

	switch {
	case verdict.FailedValidation != "":
		verdict.Decision = entity.DecisionRejected
		verdict.Reasoning = e.validationReason(verdict.FailedValidation, f)
	case len(failedGuards) > 0:
		verdict.Decision = entity.DecisionEscalated
		verdict.Escalation = &entity.EscalationTarget{
			Role:       entity.StaffWarden,
			Priority:   e.escalationPriority(in.Type, f),
			ReasonCode: ReasonDurationOrViolation,
		}
		verdict.Reasoning = e.escalationReason(in.Type, f, failedGuards)
	default:
		verdict.Approved = true
		verdict.Decision = entity.DecisionAutoApproved
		verdict.Reasoning = e.approvalReason(in, f)
		verdict.Schedule = e.schedule(in, f)
	}

	return verdict, nil
}

func (e *Engine) escalationPriority(t entity.RequestType, f facts) entity.Priority {
	if t == entity.RequestGuest && f.recentViolation {
		return entity.PriorityHigh
	}
	return entity.PriorityNormal
}

// Urgency classifies a maintenance description by keyword
func (e *Engine) Urgency(description string) string {
	lower := strings.ToLower(description)
	switch {
	case e.high.MatchString(lower):
		return entity.UrgencyHigh
	case e.medium.MatchString(lower):
		return entity.UrgencyMedium
	default:
		return entity.UrgencyLow
	}
}

func (e *Engine) schedule(in Input, f facts) *entity.MaintenanceSchedule {
	stamp := f.today.Format("20060102")
	switch in.Type {
	case entity.RequestMaintenance:
		urgency := e.Urgency(in.Fields[entity.FieldProblemDescription])
		s := &entity.MaintenanceSchedule{
			WorkOrderID:  fmt.Sprintf("WO-%s-%s", stamp, in.RequesterID),
			Urgency:      urgency,
			Priority:     entity.PriorityMedium,
			ScheduledFor: dates.Format(f.today.AddDate(0, 0, 1)),
		}
		if urgency == entity.UrgencyHigh {
			s.Priority = entity.PriorityUrgent
			s.ScheduledFor = dates.Format(f.today)
		}
		return s
	case entity.RequestRoomCleaning:
		return &entity.MaintenanceSchedule{
			WorkOrderID:  fmt.Sprintf("CL-%s-%s", stamp, in.RequesterID),
			Urgency:      entity.UrgencyLow,
			Priority:     entity.PriorityLow,
			ScheduledFor: dates.Format(f.today.AddDate(0, 0, 1)),
		}
	default:
		return nil
	}
}

func (e *Engine) validationReason(ruleID string, f facts) string {
	switch ruleID {
	case RuleDateNotInPast:
		return fmt.Sprintf("Start date %s is in the past.", dates.Format(f.start))
	case RuleEndNotBeforeStart:
		return fmt.Sprintf("End date %s is before start date %s.", dates.Format(f.end), dates.Format(f.start))
	case RuleDurationWithinCap:
		return fmt.Sprintf("Requested duration of %d days exceeds the %d-day maximum.", f.days, e.policy.MaxDurationDays)
	default:
		return fmt.Sprintf("Request failed validation rule %s.", ruleID)
	}
}

func (e *Engine) escalationReason(t entity.RequestType, f facts, failed []string) string {
	var parts []string
	for _, id := range failed {
		switch id {
		case RuleLeaveDurationLimit:
			parts = append(parts, fmt.Sprintf("leave of %s exceeds the %d-day auto-approval limit", plural(f.days, "day"), e.policy.MaxLeaveDays))
		case RuleGuestDurationLimit:
			parts = append(parts, fmt.Sprintf("guest stay of %s exceeds the %s limit", plural(f.rawDays, "night"), plural(e.policy.MaxGuestNights, "night")))
		case RuleStudentRecordCheck:
			parts = append(parts, fmt.Sprintf("requester has a violation in the last %d days", e.policy.ViolationLookbackDays))
		}
	}
	return fmt.Sprintf("%s request requires warden approval: %s.", capitalise(t.Noun()), strings.Join(parts, "; "))
}

func (e *Engine) approvalReason(in Input, f facts) string {
	switch in.Type {
	case entity.RequestLeave:
		return fmt.Sprintf("Leave of %s is within the %d-day auto-approval limit with no recent violations.", plural(f.days, "day"), e.policy.MaxLeaveDays)
	case entity.RequestGuest:
		return fmt.Sprintf("Guest stay of %s is within the %s limit with no recent violations.", plural(f.rawDays, "night"), plural(e.policy.MaxGuestNights, "night"))
	case entity.RequestMaintenance:
		return fmt.Sprintf("Maintenance requests are scheduled automatically; urgency %s.", e.Urgency(in.Fields[entity.FieldProblemDescription]))
	default:
		return "Room cleaning requests are scheduled automatically."
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func wordMatcher(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
