package outbound

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/imebridge/internal/logging"
)

// ErrClosed is returned by Send and Sync after Close, and by Next once a
// closed channel is drained.
var ErrClosed = errors.New("outbound channel closed")

// Observer receives channel activity. Implemented by the metrics package.
type Observer interface {
	EventSent(kind Kind)
	BarrierWait(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) EventSent(Kind)            {}
func (nopObserver) BarrierWait(time.Duration) {}

// Sender is the producer side of a Channel.
type Sender interface {
	Send(ev Event) error
	Sync() error
}

// Channel is an unbounded FIFO of events.
type Channel struct {
	mu     sync.Mutex
	queue  []Event
	wake   chan struct{}
	closed bool
	seq    uint64

	observer Observer
	logger   *logging.Logger

	sent   atomic.Uint64
	syncs  atomic.Uint64
	waitNs atomic.Int64
}

// Option configures a Channel.
type Option func(*Channel)

// WithObserver sets the activity observer.
func WithObserver(o Observer) Option {
	return func(c *Channel) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *logging.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChannel creates an empty channel.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		wake:     make(chan struct{}, 1),
		observer: nopObserver{},
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends ev. It never blocks.
func (c *Channel) Send(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	ev.Seq = c.seq
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	c.sent.Add(1)
	c.observer.EventSent(ev.Kind)
	c.logger.Debug("send #%d %s", ev.Seq, ev)
	return nil
}

// Sync enqueues a sync marker and blocks until the consumer releases it.
func (c *Channel) Sync() error {
	g := NewGate()
	if err := c.Send(SyncMarker(g)); err != nil {
		return err
	}
	start := time.Now()
	g.Wait()
	d := time.Since(start)

	c.syncs.Add(1)
	c.waitNs.Add(int64(d))
	c.observer.BarrierWait(d)
	return nil
}

// Next removes and returns the oldest event, blocking until one is
// available. A closed channel keeps returning queued events until empty,
// then ErrClosed.
func (c *Channel) Next(ctx context.Context) (Event, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			ev := c.queue[0]
			c.queue[0] = Event{}
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return ev, nil
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return Event{}, ErrClosed
		}

		select {
		case <-c.wake:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// TryNext returns the oldest event without blocking.
func (c *Channel) TryNext() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Event{}, false
	}
	ev := c.queue[0]
	c.queue[0] = Event{}
	c.queue = c.queue[1:]
	return ev, true
}

// Len returns the number of queued events.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close stops accepting events. Queued events remain available to Next.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Stats contains channel statistics.
type Stats struct {
	Sent         uint64
	Syncs        uint64
	Pending      int
	TotalWaiting time.Duration
}

// Stats returns channel statistics.
func (c *Channel) Stats() Stats {
	return Stats{
		Sent:         c.sent.Load(),
		Syncs:        c.syncs.Load(),
		Pending:      c.Len(),
		TotalWaiting: time.Duration(c.waitNs.Load()),
	}
}
