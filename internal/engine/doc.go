// Package engine provides the mirrored text model: the UI-owned copy of an
// editable field kept consistent with the canonical document held by the
// remote engine.
//
// A Mirror combines a rune buffer, a clamped selection and the composition
// state machine. Every host editing operation mutates the mirror first and
// then sends the matching events to the remote engine through an
// outbound.Sender, in call order.
//
// # Threading
//
// A Mirror has no locks. It belongs to the host UI loop and must only be
// touched from tasks running there.
//
// # Offsets
//
// All offsets are rune offsets. Out-of-range offsets from the host are
// clamped, reversed pairs are swapped.
//
// # Basic Usage
//
//	m := engine.NewMirror(ch, engine.WithSynthesizer(synth.New()))
//	m.SetComposingText("he", 1)
//	m.SetComposingText("hello", 1)
//	m.CommitText("hello", 1)
//	m.TextBeforeCursor(5) // "hello"
package engine
