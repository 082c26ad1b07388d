// Package event is the typed observer registry for notifications that
// originate in the remote engine.
//
// The set of notification kinds is closed (see Kind). Handlers subscribe to
// one kind, or to all of them, with a priority; Publish delivers a
// notification synchronously to every matching active subscription in
// priority order (lower values first).
//
// # Reentrancy
//
// Publishing from inside a handler is rejected with ErrReentrantDelivery.
// Engine notifications are always posted to the UI loop before they are
// published, so a handler never runs nested inside another.
package event
