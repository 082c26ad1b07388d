package event

import "sync/atomic"

// Subscription is a registered handler. Pause and Resume gate delivery
// without losing the handler's place in priority order.
type Subscription interface {
	ID() string
	// Kind is the subscribed kind, or 0 for every kind.
	Kind() Kind
	Pause()
	Resume()
	// Cancel stops delivery for good. Unsubscribe also removes the entry.
	Cancel()
}

const (
	subActive int32 = iota
	subPaused
	subCancelled
)

type subOptions struct {
	priority Priority
	filter   func(Notification) bool
	once     bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subOptions)

// WithPriority orders the handler among its peers; lower runs first.
func WithPriority(p Priority) SubscriptionOption {
	return func(o *subOptions) { o.priority = p }
}

// WithFilter drops notifications for which keep returns false.
func WithFilter(keep func(Notification) bool) SubscriptionOption {
	return func(o *subOptions) { o.filter = keep }
}

// WithOnce cancels the subscription after its first delivery.
func WithOnce() SubscriptionOption {
	return func(o *subOptions) { o.once = true }
}

type subscription struct {
	id      string
	kind    Kind
	handler Handler
	opts    subOptions
	state   atomic.Int32
}

func newSubscription(id string, k Kind, h Handler, opts ...SubscriptionOption) *subscription {
	s := &subscription{id: id, kind: k, handler: h, opts: subOptions{priority: PriorityNormal}}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *subscription) ID() string { return s.id }
func (s *subscription) Kind() Kind { return s.kind }

func (s *subscription) Pause()  { s.state.CompareAndSwap(subActive, subPaused) }
func (s *subscription) Resume() { s.state.CompareAndSwap(subPaused, subActive) }
func (s *subscription) Cancel() { s.state.Store(subCancelled) }

// wants reports whether n should reach this handler.
func (s *subscription) wants(n Notification) bool {
	if s.state.Load() != subActive {
		return false
	}
	if s.kind != 0 && s.kind != n.Kind {
		return false
	}
	return s.opts.filter == nil || s.opts.filter(n)
}
