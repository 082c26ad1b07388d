// Package loop provides single-goroutine task mailboxes.
//
// A Loop stands in for a platform thread with a message queue: state owned
// by a role (the host UI thread, the remote engine thread) is only touched
// from tasks running on that role's Loop, and other goroutines hand work over
// with Post. The queue is unbounded so that posting never blocks; a Loop
// blocked inside a task (the synchronization barrier) must not stall the
// loops that will eventually release it.
package loop

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
)

// Errors returned by Loop operations.
var (
	ErrStopped        = errors.New("loop stopped")
	ErrAlreadyRunning = errors.New("loop already running")
	ErrNotRunning     = errors.New("loop not running")
)

// WrongThreadError is the panic value raised by AssertCurrent when a task is
// executed off its owning loop.
type WrongThreadError struct {
	Loop     string
	Expected int64
	Actual   int64
}

func (e *WrongThreadError) Error() string {
	return fmt.Sprintf("wrong thread for %s: expected goroutine %d, got goroutine %d",
		e.Loop, e.Expected, e.Actual)
}

// PanicHandler is called when a posted task panics.
type PanicHandler func(loop string, recovered any, stack []byte)

// Loop executes posted tasks one at a time, in post order, on a dedicated
// goroutine.
type Loop struct {
	name   string
	strict bool

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool

	running atomic.Bool
	goid    atomic.Int64
	done    chan struct{}

	panicHandler PanicHandler

	executed atomic.Uint64
	panicked atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithStrictThreading makes AssertCurrent panic on violations.
// Without it AssertCurrent is a no-op.
func WithStrictThreading(strict bool) Option {
	return func(l *Loop) {
		l.strict = strict
	}
}

// WithPanicHandler sets the handler for panicking tasks.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		if h != nil {
			l.panicHandler = h
		}
	}
}

// New creates a stopped loop.
func New(name string, opts ...Option) *Loop {
	l := &Loop{
		name:         name,
		wake:         make(chan struct{}, 1),
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultPanicHandler(loop string, recovered any, stack []byte) {
	fmt.Printf("loop %s: task panic: %v\n%s\n", loop, recovered, stack)
}

// Name returns the loop name.
func (l *Loop) Name() string {
	return l.name
}

// Start launches the loop goroutine.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return ErrStopped
	}
	if l.running.Load() {
		return ErrAlreadyRunning
	}
	l.done = make(chan struct{})
	l.running.Store(true)

	ready := make(chan struct{})
	go l.run(ready)
	<-ready
	return nil
}

// Stop stops accepting tasks, runs what is already queued, and waits for
// the loop goroutine to exit. Calling Stop from the loop itself does not wait.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running.Load() || l.stopped {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.stopped = true
	done := l.done
	l.mu.Unlock()

	l.signal()
	if !l.IsCurrent() {
		<-done
	}
	return nil
}

// Post queues fn for execution on the loop. It never blocks.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Invoke runs fn on the loop and waits for it to finish. When called from
// the loop itself fn runs inline.
func (l *Loop) Invoke(fn func()) error {
	if l.IsCurrent() {
		fn()
		return nil
	}
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	<-done
	return nil
}

// IsCurrent reports whether the caller is running on this loop.
func (l *Loop) IsCurrent() bool {
	id := l.goid.Load()
	return id != 0 && id == currentGoroutineID()
}

// AssertCurrent panics with a *WrongThreadError when strict threading is
// enabled and the caller is not on this loop.
func (l *Loop) AssertCurrent() {
	if !l.strict {
		return
	}
	actual := currentGoroutineID()
	expected := l.goid.Load()
	if actual != expected {
		panic(&WrongThreadError{Loop: l.name, Expected: expected, Actual: actual})
	}
}

// Strict reports whether AssertCurrent enforces ownership.
func (l *Loop) Strict() bool {
	return l.strict
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats returns executed and panicked task counts.
func (l *Loop) Stats() (executed, panicked uint64) {
	return l.executed.Load(), l.panicked.Load()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run(ready chan<- struct{}) {
	l.goid.Store(currentGoroutineID())
	close(ready)
	defer func() {
		l.running.Store(false)
		close(l.done)
	}()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		stopped := l.stopped
		l.mu.Unlock()

		for _, fn := range batch {
			l.execute(fn)
		}

		if len(batch) > 0 {
			continue
		}
		if stopped {
			return
		}
		<-l.wake
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			if _, ok := r.(*WrongThreadError); ok {
				// Ownership violations are fatal by contract.
				panic(r)
			}
			l.panicHandler(l.name, r, debug.Stack())
		}
	}()
	l.executed.Add(1)
	fn()
}

var goroutinePrefix = []byte("goroutine ")

// currentGoroutineID parses the goroutine id from the runtime stack header.
func currentGoroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
