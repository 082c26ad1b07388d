// Package cursor provides the mirrored selection model.
//
// A Selection is always normalized (Start <= End) and clamped to the buffer
// length when it is stored; hosts may pass negative, stale, or reversed
// offsets and those are corrected silently.
package cursor
