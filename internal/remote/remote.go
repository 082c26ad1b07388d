// Package remote receives notifications from the remote engine and hands
// them to the UI loop.
//
// The engine calls Handler on its own loop. Every call is converted to a
// typed event.Notification and posted to the UI loop, where it is published
// through the registry. Delivery is never inline, even when the caller is
// already on the UI loop, so a handler can never observe a notification in
// the middle of another host operation.
package remote

import (
	"errors"
	"time"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/event"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/logging"
)

// ErrUnknownKind is logged for a NotifyIME kind outside the closed set.
var ErrUnknownKind = errors.New("unknown notification kind")

// Poster queues work on the UI loop.
type Poster interface {
	Post(fn func()) error
}

// Observer is told about each notification before it is published.
type Observer interface {
	Notification(kind event.Kind)
}

// Handler implements host.Notifier.
type Handler struct {
	ui       Poster
	registry *event.Registry
	observer Observer
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithObserver sets the notification observer.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		h.observer = o
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates a handler that publishes on registry from the ui loop.
func NewHandler(ui Poster, registry *event.Registry, opts ...Option) *Handler {
	h := &Handler{
		ui:       ui,
		registry: registry,
		logger:   logging.NullLogger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NotifyIME implements host.Notifier.
func (h *Handler) NotifyIME(kind host.IMEKind, state int) {
	n := event.Notification{Timestamp: h.now()}
	switch kind {
	case host.IMEResetInputState:
		n.Kind = event.KindResetInputState
	case host.IMECancelComposition:
		n.Kind = event.KindCancelComposition
	case host.IMESetOpenState:
		n.Kind = event.KindSetOpenState
		n.Open = state != 0
	case host.IMEFocusChange:
		n.Kind = event.KindFocusChange
		n.Focused = state != 0
	default:
		h.logger.Contract("%v: %s", ErrUnknownKind, kind)
		return
	}
	h.post(n)
}

// NotifyIMEEnabled implements host.Notifier.
func (h *Handler) NotifyIMEEnabled(state capability.State, typeHint, actionHint string) {
	h.post(event.Notification{
		Kind:      event.KindIMEEnabled,
		Timestamp: h.now(),
		Capabilities: capability.Capabilities{
			State:      state,
			TypeHint:   typeHint,
			ActionHint: actionHint,
		},
	})
}

// NotifyIMEChange implements host.Notifier. A negative newEnd reports a
// selection change; otherwise text is the full canonical text.
func (h *Handler) NotifyIMEChange(text string, selStart, selEnd, newEnd int) {
	n := event.Notification{
		Timestamp: h.now(),
		SelStart:  selStart,
		SelEnd:    selEnd,
		NewEnd:    newEnd,
	}
	if newEnd < 0 {
		n.Kind = event.KindSelectionChange
	} else {
		n.Kind = event.KindTextChange
		n.Text = text
	}
	h.post(n)
}

func (h *Handler) post(n event.Notification) {
	if h.observer != nil {
		h.observer.Notification(n.Kind)
	}
	err := h.ui.Post(func() {
		if err := h.registry.Publish(n); err != nil {
			h.logger.Warn("publish %s: %v", n, err)
		}
	})
	if err != nil {
		h.logger.Warn("dropping %s: %v", n, err)
	}
}

var _ host.Notifier = (*Handler)(nil)
