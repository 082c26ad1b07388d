package engine

import (
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/logging"
)

// KeySynthesizer converts a single character into key events. Any error
// means the character is sent as text instead.
type KeySynthesizer interface {
	Synthesize(r rune) ([]key.Event, error)
}

// Option configures a Mirror during creation.
type Option func(*Mirror)

// WithSynthesizer enables key synthesis for single-character commits.
func WithSynthesizer(s KeySynthesizer) Option {
	return func(m *Mirror) {
		m.synth = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBufferOptions passes options to the underlying buffer.
func WithBufferOptions(opts ...buffer.Option) Option {
	return func(m *Mirror) {
		m.bufOpts = append(m.bufOpts, opts...)
	}
}

// WithContent sets the initial text, caret at the end.
func WithContent(text string) Option {
	return func(m *Mirror) {
		m.initContent = text
	}
}
