// Package outbound carries ordered messages from the host UI loop to the
// remote engine loop.
//
// A Channel is an unbounded FIFO. The UI side calls Send and never blocks;
// the engine side drains it with Next. Events are neither reordered nor
// coalesced.
//
// Sync is the consistency checkpoint: it enqueues a marker carrying a fresh
// Gate and blocks until the consumer releases it. The consumer processes
// the marker only after everything sent before it, so returning from Sync
// means the engine has applied every earlier event.
//
//	ch.Send(outbound.KeyInput(down))
//	ch.Send(outbound.KeyInput(up))
//	ch.Sync() // returns once the engine released the marker
package outbound
