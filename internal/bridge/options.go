package bridge

import (
	"time"

	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/logging"
	"github.com/dshills/imebridge/internal/metrics"
)

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClipboard sets the clipboard used by context actions.
func WithClipboard(cb host.Clipboard) Option {
	return func(c *Context) {
		c.clipboard = cb
	}
}

// WithSynthesizer enables key synthesis for single-character commits.
func WithSynthesizer(s engine.KeySynthesizer) Option {
	return func(c *Context) {
		c.synth = s
	}
}

// WithMetrics records activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) {
		c.metrics = m
	}
}

// WithUpdateDelay sets the keyboard state coalescing window.
func WithUpdateDelay(d time.Duration) Option {
	return func(c *Context) {
		c.updateDelay = d
	}
}

// WithLogCalls wraps every connection in a logging decorator.
func WithLogCalls(enabled bool) Option {
	return func(c *Context) {
		c.logCalls = enabled
	}
}

// WithBufferOptions passes options to each mirror's buffer.
func WithBufferOptions(opts ...buffer.Option) Option {
	return func(c *Context) {
		c.bufOpts = append(c.bufOpts, opts...)
	}
}
