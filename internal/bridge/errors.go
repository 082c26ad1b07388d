package bridge

import "errors"

var (
	// ErrNilLoop is returned when a context is created without a UI loop.
	ErrNilLoop = errors.New("bridge: nil ui loop")

	// ErrNilSender is returned when a context is created without an
	// outbound sender.
	ErrNilSender = errors.New("bridge: nil outbound sender")

	// ErrNilHost is returned when a context is created without an input
	// method manager.
	ErrNilHost = errors.New("bridge: nil input method manager")

	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("bridge: context closed")
)
