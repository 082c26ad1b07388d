package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Start was called twice.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNotRunning indicates Shutdown before Start.
	ErrNotRunning = errors.New("application not running")

	// ErrNoHost indicates Options.IMM was not set.
	ErrNoHost = errors.New("no input method manager")
)

// InitError reports which component failed to come up.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// RecoveredPanicError wraps a panic recovered on one of the loops.
type RecoveredPanicError struct {
	Loop  string
	Value any
	Stack string
}

func (e *RecoveredPanicError) Error() string {
	return fmt.Sprintf("panic on %s loop: %v", e.Loop, e.Value)
}
