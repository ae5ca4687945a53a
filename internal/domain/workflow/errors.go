package workflow

import "errors"

// Sentinel errors returned by Fire; wrap them with errors.Is in callers.
var (
	ErrInvalidTransition = errors.New("transition not permitted")
	ErrInvalidState      = errors.New("unknown dialogue state")
	ErrGuardFailed       = errors.New("no transition guard passed")
	ErrTerminalState     = errors.New("session already finished")
)
