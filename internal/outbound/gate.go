package outbound

import (
	"sync"
	"sync/atomic"
)

var gateIDs atomic.Uint64

// Gate is a single-use latch. The sender blocks in Wait until the consumer
// calls Release. There is no timeout: a consumer that never releases stalls
// the sender.
type Gate struct {
	id   uint64
	once sync.Once
	ch   chan struct{}
}

// NewGate creates an unreleased gate.
func NewGate() *Gate {
	return &Gate{
		id: gateIDs.Add(1),
		ch: make(chan struct{}),
	}
}

// ID returns the gate identifier, unique within the process.
func (g *Gate) ID() uint64 {
	return g.id
}

// Release opens the gate. Calls after the first are no-ops.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until the gate is released.
func (g *Gate) Wait() {
	<-g.ch
}

// Done returns a channel closed on release.
func (g *Gate) Done() <-chan struct{} {
	return g.ch
}

// Released reports whether Release has been called.
func (g *Gate) Released() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}
