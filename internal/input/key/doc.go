// Package key defines the platform key events exchanged between the host
// input framework and the remote engine.
//
// Codes follow the Android KeyEvent numbering so that synthesized events
// look exactly like the ones a hardware keyboard would deliver:
//
//   - Code: a platform key code (CodeA, CodeEnter, CodeShiftLeft, ...)
//   - Action: down, up, or multiple
//   - Modifier: the meta state active for the event
//   - Event: a single key action with its character and modifiers
package key
