package capability

import "github.com/dshills/imebridge/internal/logging"

// Refresher receives capability refresh requests. The delayed updater
// implements it.
type Refresher interface {
	RequestEnable()
}

// Negotiator records the latest engine-reported capabilities for one
// connection. It is owned by the UI loop.
type Negotiator struct {
	caps    Capabilities
	focused bool

	refresher Refresher
	isTarget  func() bool
	logger    *logging.Logger

	updates uint64
}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithTargetCheck sets the function that reports whether the host's
// focused view is the one this negotiator serves. Without it the target
// always matches.
func WithTargetCheck(fn func() bool) Option {
	return func(n *Negotiator) {
		if fn != nil {
			n.isTarget = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(n *Negotiator) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNegotiator creates a negotiator reporting refreshes to r.
func NewNegotiator(r Refresher, opts ...Option) *Negotiator {
	n := &Negotiator{
		refresher: r,
		isTarget:  func() bool { return true },
		logger:    logging.NullLogger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Update records a new capability tuple and, when the host's focused view
// is our target, requests a refresh. The tuple replaces the previous one
// entirely, so a stale type hint never survives a new report.
func (n *Negotiator) Update(c Capabilities) {
	n.caps = c
	n.updates++
	if !n.isTarget() {
		n.logger.Debug("capabilities %s recorded, target not focused", c)
		return
	}
	n.logger.Debug("capabilities %s -> %s", c, Map(c))
	if n.refresher != nil {
		n.refresher.RequestEnable()
	}
}

// SetFocus records whether an editable element has focus.
func (n *Negotiator) SetFocus(focused bool) {
	n.focused = focused
}

// Focused reports the last recorded focus.
func (n *Negotiator) Focused() bool {
	return n.focused
}

// Capabilities returns the latest tuple.
func (n *Negotiator) Capabilities() Capabilities {
	return n.caps
}

// EditorInfo maps the latest tuple to keyboard hints.
func (n *Negotiator) EditorInfo() EditorInfo {
	return Map(n.caps)
}

// Enabled reports whether the keyboard should be shown.
func (n *Negotiator) Enabled() bool {
	return n.caps.WantsKeyboard()
}

// Updates returns how many tuples have been recorded.
func (n *Negotiator) Updates() uint64 {
	return n.updates
}
