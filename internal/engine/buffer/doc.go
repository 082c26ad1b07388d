// Package buffer provides the mirrored text buffer used by the input bridge.
//
// A Buffer is the UI-side copy of an editable field: a rune sequence plus
// range annotations (the composing range and the style spans the input
// method attached to it). Offsets are rune offsets. At most one composing
// range exists at a time.
//
// Buffers are not synchronized. They are owned by a single loop and must
// only be touched from tasks running on it.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello")
//	buf.Replace(buffer.Range{Start: 5, End: 5}, ", World")
//	buf.SetComposing(buffer.Range{Start: 7, End: 12})
package buffer
