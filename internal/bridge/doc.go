// Package bridge connects the host input framework to the remote engine.
//
// A Context owns all mutable state for one editable view: the mirrored
// text model, the capability negotiator, the delayed state updater and
// the notification subscriptions. Nothing is global, so several contexts
// can run side by side.
//
// Threading:
//
//   - Connection methods and the host-facing Context methods run on the
//     UI loop. With strict threading enabled a call from any other
//     goroutine panics.
//   - The remote engine reaches the context only through Notifier, whose
//     methods post to the UI loop.
//   - The only blocking call is a single-character commit, which waits for
//     the engine to acknowledge the synthesized key events.
//
// Basic usage:
//
//	ctx, err := bridge.NewContext(ui, channel, imm, bridge.WithClipboard(cb))
//	engine := enginesim.New(channel, ctx.Notifier())
//	...
//	ui.Invoke(func() {
//		conn, info := ctx.Connect()
//		conn.CommitText("hi", 1)
//	})
package bridge
