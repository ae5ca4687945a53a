package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// GuardFunc decides whether a transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and stamps out machines
type StateMachineBuilder interface {
	// Configure returns the configuration of the given state
	Configure(state State) StateConfiguration

	// Build creates a machine instance starting at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state.
// Rules of one trigger are tried in the order they were added.
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

// BuilderOption customises a builder
type BuilderOption func(*builder)

// WithClock sets the time source used to stamp history entries
func WithClock(now func() time.Time) BuilderOption {
	return func(b *builder) { b.now = now }
}

type rule struct {
	to    State
	guard GuardFunc
}

func (r rule) allows(ctx context.Context) bool {
	return r.guard == nil || r.guard(ctx)
}

// table maps a state and trigger to its candidate rules
type table map[State]map[Trigger][]rule

func (t table) clone() table {
	out := make(table, len(t))
	for state, byTrigger := range t {
		rules := make(map[Trigger][]rule, len(byTrigger))
		for trigger, rs := range byTrigger {
			rules[trigger] = append([]rule(nil), rs...)
		}
		out[state] = rules
	}
	return out
}

type builder struct {
	rules   table
	configs map[State]*stateRules
	now     func() time.Time
}

// NewBuilder creates an empty builder
func NewBuilder(opts ...BuilderOption) StateMachineBuilder {
	b := &builder{rules: make(table), configs: make(map[State]*stateRules), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *builder) Configure(state State) StateConfiguration {
	mustBeValid("state", state)
	if cfg, ok := b.configs[state]; ok {
		return cfg
	}
	b.rules[state] = make(map[Trigger][]rule)
	b.configs[state] = &stateRules{rules: b.rules[state]}
	return b.configs[state]
}

// Build freezes a copy of the rules, so later Configure calls do not leak
// into machines that already exist
func (b *builder) Build(initialState State) StateMachine {
	mustBeValid("initial state", initialState)
	return &machine{
		current: initialState,
		rules:   b.rules.clone(),
		now:     b.now,
	}
}

func mustBeValid(what string, s State) {
	if !s.IsValid() {
		panic(fmt.Sprintf("workflow: invalid %s %q", what, s))
	}
}

type stateRules struct {
	rules map[Trigger][]rule
}

func (c *stateRules) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateRules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	mustBeValid("target state", toState)
	c.rules[trigger] = append(c.rules[trigger], rule{to: toState, guard: guard})
	return c
}

type machine struct {
	current State
	rules   table
	history []Transition
	now     func() time.Time
}

func (m *machine) State() State {
	return m.current
}

// candidates returns the rules of trigger from the current state
func (m *machine) candidates(trigger Trigger) ([]rule, error) {
	if m.current.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot fire %s from %s", ErrTerminalState, trigger, m.current)
	}
	rs := m.rules[m.current][trigger]
	if len(rs) == 0 {
		return nil, fmt.Errorf("%w: %s is not permitted from %s", ErrInvalidTransition, trigger, m.current)
	}
	return rs, nil
}

// CanFire ignores guards
func (m *machine) CanFire(trigger Trigger) bool {
	_, err := m.candidates(trigger)
	return err == nil
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) (State, error) {
	rs, err := m.candidates(trigger)
	if err != nil {
		return m.current, err
	}

	for _, r := range rs {
		if !r.allows(ctx) {
			continue
		}
		m.history = append(m.history, Transition{From: m.current, To: r.to, Trigger: trigger, At: m.now()})
		m.current = r.to
		return m.current, nil
	}
	return m.current, fmt.Errorf("%w: every rule of %s from %s was rejected", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	triggers := []Trigger{}
	if m.current.IsTerminal() {
		return triggers
	}
	for trigger := range m.rules[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (m *machine) History() []Transition {
	return append([]Transition(nil), m.history...)
}
