package workflow

import (
	"context"
	"time"
)

// Transition is one recorded state change
type Transition struct {
	From    State     `json:"from"`
	To      State     `json:"to"`
	Trigger Trigger   `json:"trigger"`
	At      time.Time `json:"at"`
}

// StateMachine tracks a session's current step and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one transition from the current state
	CanFire(trigger Trigger) bool

	// Fire runs the first transition whose guard passes and returns the new state
	Fire(ctx context.Context, trigger Trigger) (State, error)

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger

	// History returns the transitions taken by this machine
	History() []Transition
}
