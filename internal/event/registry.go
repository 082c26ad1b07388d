package event

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/imebridge/internal/logging"
)

// Registry holds subscriptions and delivers notifications to them.
// Subscribe and Unsubscribe are safe for concurrent use; Publish is meant
// to be called from a single owning loop.
type Registry struct {
	mu   sync.RWMutex
	subs []*subscription
	byID map[string]*subscription

	publishing atomic.Bool
	logger     *logging.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *logging.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byID:   make(map[string]*subscription),
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers h for notifications of kind k.
func (r *Registry) Subscribe(k Kind, h Handler, opts ...SubscriptionOption) (Subscription, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, uint8(k))
	}
	return r.add(k, h, opts)
}

// SubscribeAll registers h for every kind.
func (r *Registry) SubscribeAll(h Handler, opts ...SubscriptionOption) (Subscription, error) {
	return r.add(0, h, opts)
}

func (r *Registry) add(k Kind, h Handler, opts []SubscriptionOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	sub := newSubscription(uuid.NewString(), k, h, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub)
	// Stable so equal priorities keep subscription order.
	sort.SliceStable(r.subs, func(i, j int) bool {
		return r.subs[i].opts.priority < r.subs[j].opts.priority
	})
	r.byID[sub.ID()] = sub
	return sub, nil
}

// Unsubscribe removes a subscription by ID.
func (r *Registry) Unsubscribe(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byID[id]
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.Cancel()
	delete(r.byID, id)
	for i, s := range r.subs {
		if s == sub {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			break
		}
	}
	return nil
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Publish delivers n to every matching subscription in priority order. A
// failing or panicking handler does not stop delivery to the others; the
// joined handler errors are returned.
func (r *Registry) Publish(n Notification) error {
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, uint8(n.Kind))
	}
	if !r.publishing.CompareAndSwap(false, true) {
		r.logger.Contract("%v: %s published from a handler", ErrReentrantDelivery, n)
		return ErrReentrantDelivery
	}
	defer r.publishing.Store(false)

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	r.published.Add(1)

	r.mu.RLock()
	subs := make([]*subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !sub.wants(n) {
			continue
		}
		if sub.opts.once {
			sub.Cancel()
		}
		if err := r.deliver(sub, n); err != nil {
			r.failed.Add(1)
			r.logger.Error("%v", err)
			errs = append(errs, err)
			continue
		}
		r.delivered.Add(1)
	}
	return errors.Join(errs...)
}

func (r *Registry) deliver(sub *subscription, n Notification) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &HandlerError{
				SubscriptionID: sub.ID(),
				Kind:           n.Kind,
				Err:            fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, rec, debug.Stack()),
			}
		}
	}()
	if herr := sub.handler(n); herr != nil {
		return &HandlerError{SubscriptionID: sub.ID(), Kind: n.Kind, Err: herr}
	}
	return nil
}

// Stats contains registry statistics.
type Stats struct {
	Subscriptions int
	Published     uint64
	Delivered     uint64
	Failed        uint64
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	return Stats{
		Subscriptions: r.Count(),
		Published:     r.published.Load(),
		Delivered:     r.delivered.Load(),
		Failed:        r.failed.Load(),
	}
}
