package synth

import "strings"

// Exception lists characters whose synthesized key events are unreliable
// on a range of platform versions. A zero MaxVersion means no upper bound.
type Exception struct {
	MinVersion int    `toml:"min_version" yaml:"min_version"`
	MaxVersion int    `toml:"max_version" yaml:"max_version"`
	Chars      string `toml:"chars" yaml:"chars"`
}

// Applies reports whether the exception covers version.
func (e Exception) Applies(version int) bool {
	if version < e.MinVersion {
		return false
	}
	return e.MaxVersion == 0 || version <= e.MaxVersion
}

// DefaultExceptions returns the built-in table.
//
// Virtual key maps before version 11 lack the dedicated symbol keys, and
// the tab key moves focus instead of inserting on every version.
func DefaultExceptions() []Exception {
	return []Exception{
		{MinVersion: 0, MaxVersion: 10, Chars: "@#*+"},
		{MinVersion: 0, Chars: "\t"},
	}
}

// excluded reports whether r is listed by any exception applying to version.
func excluded(table []Exception, version int, r rune) bool {
	for _, e := range table {
		if e.Applies(version) && strings.ContainsRune(e.Chars, r) {
			return true
		}
	}
	return false
}
