package key

import "strings"

// Modifier is a set of held modifier keys.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModCtrl
	ModAlt
	ModMeta
)

// modifierOrder is the press order used when synthesizing and the order
// names appear in String.
var modifierOrder = []struct {
	mod  Modifier
	code Code
	name string
}{
	{ModCtrl, CodeCtrlLeft, "Ctrl"},
	{ModAlt, CodeAltLeft, "Alt"},
	{ModShift, CodeShiftLeft, "Shift"},
	{ModMeta, CodeMetaLeft, "Meta"},
}

// Has reports whether every modifier in mod is held.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod && mod != 0
}

// With adds mod.
func (m Modifier) With(mod Modifier) Modifier { return m | mod }

// Without removes mod.
func (m Modifier) Without(mod Modifier) Modifier { return m &^ mod }

// Codes returns the key codes that must be held to produce m, in press
// order.
func (m Modifier) Codes() []Code {
	var codes []Code
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			codes = append(codes, o.code)
		}
	}
	return codes
}

// String returns names joined by "+", like "Ctrl+Shift".
func (m Modifier) String() string {
	var parts []string
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "+")
}

// ParseModifiers parses a "+" separated list such as "ctrl+shift".
// Unknown names are ignored.
func ParseModifiers(s string) Modifier {
	var m Modifier
	for _, part := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "ctrl", "control":
			m |= ModCtrl
		case "alt", "option":
			m |= ModAlt
		case "shift":
			m |= ModShift
		case "meta", "cmd":
			m |= ModMeta
		}
	}
	return m
}
