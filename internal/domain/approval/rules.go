package approval

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

// Rule ids, in evaluation order
const (
	RuleDateNotInPast           = "date_not_in_past"
	RuleEndNotBeforeStart       = "end_not_before_start"
	RuleDurationWithinCap       = "duration_within_cap"
	RuleLeaveDurationLimit      = "leave_duration_limit"
	RuleGuestDurationLimit      = "guest_duration_limit"
	RuleStudentRecordCheck      = "student_record_check"
	RuleMaintenanceSchedule     = "maintenance_auto_schedule"
	RuleMaintenanceUrgency      = "maintenance_urgency_classification"
	RuleRegularCleaningSchedule = "regular_cleaning_auto_schedule"
)

// RuleKind decides what a failing rule does to the verdict
type RuleKind int

const (
	// KindValidation rejects the request when the rule fails
	KindValidation RuleKind = iota
	// KindGuard escalates the request when the rule fails
	KindGuard
	// KindAction rules always pass and record what was done
	KindAction
)

// Rule is one policy predicate over the request facts
type Rule struct {
	ID      string
	Applies []entity.RequestType
	Kind    RuleKind
	Expr    string
}

func (r Rule) appliesTo(t entity.RequestType) bool {
	for _, a := range r.Applies {
		if a == t {
			return true
		}
	}
	return false
}

var dated = []entity.RequestType{entity.RequestLeave, entity.RequestGuest}

// DefaultRules is the rule table in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{ID: RuleDateNotInPast, Applies: dated, Kind: KindValidation, Expr: `!has_start || start_offset >= 0`},
		{ID: RuleEndNotBeforeStart, Applies: dated, Kind: KindValidation, Expr: `!has_start || !has_end || raw_days >= 0`},
		{ID: RuleDurationWithinCap, Applies: dated, Kind: KindValidation, Expr: `days <= max_duration_days`},
		{ID: RuleLeaveDurationLimit, Applies: []entity.RequestType{entity.RequestLeave}, Kind: KindGuard, Expr: `days <= max_leave_days`},
		{ID: RuleGuestDurationLimit, Applies: []entity.RequestType{entity.RequestGuest}, Kind: KindGuard, Expr: `raw_days <= max_guest_nights`},
		{ID: RuleStudentRecordCheck, Applies: dated, Kind: KindGuard, Expr: `!recent_violation`},
		{ID: RuleMaintenanceSchedule, Applies: []entity.RequestType{entity.RequestMaintenance}, Kind: KindAction, Expr: `true`},
		{ID: RuleMaintenanceUrgency, Applies: []entity.RequestType{entity.RequestMaintenance}, Kind: KindAction, Expr: `true`},
		{ID: RuleRegularCleaningSchedule, Applies: []entity.RequestType{entity.RequestRoomCleaning}, Kind: KindAction, Expr: `true`},
	}
}

type compiledRule struct {
	Rule
	program cel.Program
}

func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("days", cel.IntType),
		cel.Variable("raw_days", cel.IntType),
		cel.Variable("start_offset", cel.IntType),
		cel.Variable("has_start", cel.BoolType),
		cel.Variable("has_end", cel.BoolType),
		cel.Variable("recent_violation", cel.BoolType),
		cel.Variable("max_leave_days", cel.IntType),
		cel.Variable("max_guest_nights", cel.IntType),
		cel.Variable("max_duration_days", cel.IntType),
	)
}

func compileRules(env *cel.Env, rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Expr == "" {
			return nil, fmt.Errorf("rule %s: expression required", r.ID)
		}
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: %w", r.ID, errors.New("expression must be boolean"))
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		out = append(out, compiledRule{Rule: r, program: program})
	}
	return out, nil
}

func (r compiledRule) eval(vars map[string]any) (bool, error) {
	out, _, err := r.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("rule %s: %w", r.ID, err)
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %s: non-boolean result %v", r.ID, out.Value())
	}
	return v, nil
}
