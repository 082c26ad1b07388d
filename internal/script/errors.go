package script

import "errors"

var (
	// ErrClosed is returned when using a closed runtime.
	ErrClosed = errors.New("script: runtime closed")

	// ErrTimeout is returned when a chunk or listener runs past its
	// deadline.
	ErrTimeout = errors.New("script: execution timeout")

	// ErrScript wraps errors raised by Lua code.
	ErrScript = errors.New("script: lua error")
)
