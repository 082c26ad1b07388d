package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the registry.
var (
	// ErrReentrantDelivery is returned when Publish is called from a handler.
	ErrReentrantDelivery = errors.New("reentrant notification delivery")

	// ErrInvalidKind is returned for a kind outside the closed set.
	ErrInvalidKind = errors.New("invalid notification kind")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown ID.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error from a handler with additional context.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Kind is the notification kind being delivered.
	Kind Kind

	// Err is the underlying error.
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s for %s: %v", e.SubscriptionID, e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
