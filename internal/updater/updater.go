// Package updater coalesces rapid keyboard show/hide and input reset
// requests into a single host action.
//
// The first request arms a one-shot timer; requests arriving before it
// fires only add their flag to the pending request. When the timer fires
// its body posts the work to the UI loop, which restarts input once if a
// reset or enable was requested and then shows or hides the keyboard per
// the latest enabled state.
package updater

import (
	"sync"
	"time"

	"github.com/dshills/imebridge/internal/logging"
)

// DefaultDelay is the coalescing window.
const DefaultDelay = 200 * time.Millisecond

// Flags are the effects a pending request will apply.
type Flags uint8

const (
	FlagEnable Flags = 1 << iota
	FlagReset
)

// Has reports whether f contains flag.
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// String returns "enable|reset" style names.
func (f Flags) String() string {
	switch f {
	case 0:
		return "none"
	case FlagEnable:
		return "enable"
	case FlagReset:
		return "reset"
	default:
		return "enable|reset"
	}
}

// Host is the part of the input method manager the updater drives.
type Host interface {
	RestartInput()
	ShowSoftInput()
	HideSoftInput()
}

// Poster hands a task to the UI loop.
type Poster interface {
	Post(fn func()) error
}

// Observer receives updater activity. Implemented by the metrics package.
type Observer interface {
	Coalesced()
	Applied(flags Flags)
}

type nopObserver struct{}

func (nopObserver) Coalesced()    {}
func (nopObserver) Applied(Flags) {}

// Updater owns at most one pending request.
type Updater struct {
	mu      sync.Mutex
	pending Flags
	timer   *time.Timer
	stopped bool

	delay    time.Duration
	host     Host
	poster   Poster
	enabled  func() bool
	observer Observer
	logger   *logging.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithDelay sets the coalescing window.
func WithDelay(d time.Duration) Option {
	return func(u *Updater) {
		if d > 0 {
			u.delay = d
		}
	}
}

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(u *Updater) {
		if o != nil {
			u.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// New creates an updater. enabled is read on the UI loop when a request
// is applied.
func New(host Host, poster Poster, enabled func() bool, opts ...Option) *Updater {
	u := &Updater{
		delay:    DefaultDelay,
		host:     host,
		poster:   poster,
		enabled:  enabled,
		observer: nopObserver{},
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RequestEnable asks for a capability refresh and a show/hide.
func (u *Updater) RequestEnable() {
	u.request(FlagEnable)
}

// RequestReset asks for an input restart.
func (u *Updater) RequestReset() {
	u.request(FlagReset)
}

func (u *Updater) request(f Flags) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stopped {
		return
	}
	if u.timer != nil {
		u.pending |= f
		u.observer.Coalesced()
		u.logger.Debug("coalesced %s into pending %s", f, u.pending)
		return
	}
	u.pending = f
	u.timer = time.AfterFunc(u.delay, u.fire)
}

// Pending returns the flags of the pending request, or 0.
func (u *Updater) Pending() Flags {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

// fire runs on the timer goroutine and touches nothing but the guarded
// pending request before posting.
func (u *Updater) fire() {
	u.mu.Lock()
	flags := u.pending
	u.pending = 0
	u.timer = nil
	stopped := u.stopped
	u.mu.Unlock()

	if stopped || flags == 0 {
		return
	}
	if err := u.poster.Post(func() { u.apply(flags) }); err != nil {
		u.logger.Warn("post %s: %v", flags, err)
	}
}

func (u *Updater) apply(flags Flags) {
	u.observer.Applied(flags)
	u.host.RestartInput()
	if !flags.Has(FlagEnable) {
		u.logger.Debug("applied %s", flags)
		return
	}
	if u.enabled != nil && u.enabled() {
		u.host.ShowSoftInput()
	} else {
		u.host.HideSoftInput()
	}
	u.logger.Debug("applied %s", flags)
}

// Stop cancels any pending request. Later requests are ignored.
func (u *Updater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopped = true
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.pending = 0
}
