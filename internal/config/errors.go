package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("config closed")

	// ErrValidationFailed wraps every ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// ValidationErrors collects every failure found in one pass.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrValidationFailed }
