// Package notify delivers configuration change events to subscribers.
package notify

import (
	"sort"
	"strings"
	"sync"
)

// ChangeType is the kind of change.
type ChangeType int

const (
	// ChangeSet means a value was added or modified.
	ChangeSet ChangeType = iota
	// ChangeDelete means a value disappeared.
	ChangeDelete
	// ChangeReload means a whole source was re-read.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change is one configuration change.
type Change struct {
	// Path is the dotted setting path. Empty for reloads.
	Path     string
	Type     ChangeType
	OldValue any
	NewValue any
	// Source names the origin, such as a file path or "session".
	Source string
}

// Observer receives changes.
type Observer func(Change)

type entry struct {
	id   uint64
	path string
	fn   Observer
}

// Subscription is a handle for removing an observer.
type Subscription struct {
	id uint64
	n  *Notifier
}

// Unsubscribe removes the observer. Calling it twice is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.n == nil {
		return
	}
	s.n.mu.Lock()
	delete(s.n.entries, s.id)
	s.n.mu.Unlock()
}

// Notifier fans changes out synchronously on the caller's goroutine.
// Observers run outside the lock and may subscribe or unsubscribe.
type Notifier struct {
	mu      sync.Mutex
	entries map[uint64]entry
	nextID  uint64
}

// New creates a notifier.
func New() *Notifier {
	return &Notifier{entries: make(map[uint64]entry)}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.SubscribePath("", fn)
}

// SubscribePath registers an observer for path and everything below it.
// Reloads reach every observer.
func (n *Notifier) SubscribePath(path string, fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.entries[n.nextID] = entry{id: n.nextID, path: path, fn: fn}
	return &Subscription{id: n.nextID, n: n}
}

// Count returns the number of observers.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Notify delivers c to matching observers in subscription order.
func (n *Notifier) Notify(c Change) {
	n.mu.Lock()
	targets := make([]entry, 0, len(n.entries))
	for _, e := range n.entries {
		if c.Type == ChangeReload || covers(e.path, c.Path) {
			targets = append(targets, e)
		}
	}
	n.mu.Unlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	for _, e := range targets {
		e.fn(c)
	}
}

// covers reports whether a subscription on parent sees a change to child.
func covers(parent, child string) bool {
	if parent == "" || parent == child {
		return true
	}
	return strings.HasPrefix(child, parent+".")
}
