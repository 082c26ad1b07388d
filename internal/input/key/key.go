package key

import (
	"fmt"
	"strings"
)

// Code is a platform key code.
type Code uint16

// Key codes. Values match the Android KeyEvent constants.
const (
	CodeUnknown      Code = 0
	CodeHome         Code = 3
	CodeBack         Code = 4
	Code0            Code = 7
	Code1            Code = 8
	Code2            Code = 9
	Code3            Code = 10
	Code4            Code = 11
	Code5            Code = 12
	Code6            Code = 13
	Code7            Code = 14
	Code8            Code = 15
	Code9            Code = 16
	CodeStar         Code = 17
	CodePound        Code = 18
	CodeDpadUp       Code = 19
	CodeDpadDown     Code = 20
	CodeDpadLeft     Code = 21
	CodeDpadRight    Code = 22
	CodeA            Code = 29
	CodeZ            Code = 54
	CodeComma        Code = 55
	CodePeriod       Code = 56
	CodeAltLeft      Code = 57
	CodeAltRight     Code = 58
	CodeShiftLeft    Code = 59
	CodeShiftRight   Code = 60
	CodeTab          Code = 61
	CodeSpace        Code = 62
	CodeEnter        Code = 66
	CodeDel          Code = 67
	CodeGrave        Code = 68
	CodeMinus        Code = 69
	CodeEquals       Code = 70
	CodeLeftBracket  Code = 71
	CodeRightBracket Code = 72
	CodeBackslash    Code = 73
	CodeSemicolon    Code = 74
	CodeApostrophe   Code = 75
	CodeSlash        Code = 76
	CodeAt           Code = 77
	CodePlus         Code = 81
	CodeEscape       Code = 111
	CodeForwardDel   Code = 112
	CodeCtrlLeft     Code = 113
	CodeCtrlRight    Code = 114
	CodeMetaLeft     Code = 117
	CodeMetaRight    Code = 118
	CodeMoveHome     Code = 122
	CodeMoveEnd      Code = 123
)

var codeNames = map[Code]string{
	CodeUnknown:      "Unknown",
	CodeHome:         "Home",
	CodeBack:         "Back",
	CodeStar:         "Star",
	CodePound:        "Pound",
	CodeDpadUp:       "DpadUp",
	CodeDpadDown:     "DpadDown",
	CodeDpadLeft:     "DpadLeft",
	CodeDpadRight:    "DpadRight",
	CodeComma:        "Comma",
	CodePeriod:       "Period",
	CodeAltLeft:      "AltLeft",
	CodeAltRight:     "AltRight",
	CodeShiftLeft:    "ShiftLeft",
	CodeShiftRight:   "ShiftRight",
	CodeTab:          "Tab",
	CodeSpace:        "Space",
	CodeEnter:        "Enter",
	CodeDel:          "Del",
	CodeGrave:        "Grave",
	CodeMinus:        "Minus",
	CodeEquals:       "Equals",
	CodeLeftBracket:  "LeftBracket",
	CodeRightBracket: "RightBracket",
	CodeBackslash:    "Backslash",
	CodeSemicolon:    "Semicolon",
	CodeApostrophe:   "Apostrophe",
	CodeSlash:        "Slash",
	CodeAt:           "At",
	CodePlus:         "Plus",
	CodeEscape:       "Escape",
	CodeForwardDel:   "ForwardDel",
	CodeCtrlLeft:     "CtrlLeft",
	CodeCtrlRight:    "CtrlRight",
	CodeMetaLeft:     "MetaLeft",
	CodeMetaRight:    "MetaRight",
	CodeMoveHome:     "MoveHome",
	CodeMoveEnd:      "MoveEnd",
}

// Letter returns the code for an ASCII letter, either case.
func Letter(r rune) (Code, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return CodeA + Code(r-'a'), true
	case r >= 'A' && r <= 'Z':
		return CodeA + Code(r-'A'), true
	}
	return CodeUnknown, false
}

// Digit returns the code for an ASCII digit.
func Digit(r rune) (Code, bool) {
	if r >= '0' && r <= '9' {
		return Code0 + Code(r-'0'), true
	}
	return CodeUnknown, false
}

// String returns a human-readable name for the code.
func (c Code) String() string {
	switch {
	case c >= CodeA && c <= CodeZ:
		return string(rune('A' + c - CodeA))
	case c >= Code0 && c <= Code9:
		return string(rune('0' + c - Code0))
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// IsModifier returns true for shift, ctrl, alt and meta keys.
func (c Code) IsModifier() bool {
	switch c {
	case CodeShiftLeft, CodeShiftRight, CodeCtrlLeft, CodeCtrlRight,
		CodeAltLeft, CodeAltRight, CodeMetaLeft, CodeMetaRight:
		return true
	}
	return false
}

// Modifier returns the modifier flag a modifier key contributes.
func (c Code) Modifier() Modifier {
	switch c {
	case CodeShiftLeft, CodeShiftRight:
		return ModShift
	case CodeCtrlLeft, CodeCtrlRight:
		return ModCtrl
	case CodeAltLeft, CodeAltRight:
		return ModAlt
	case CodeMetaLeft, CodeMetaRight:
		return ModMeta
	}
	return ModNone
}

// IsNavigation returns true for caret movement keys.
func (c Code) IsNavigation() bool {
	switch c {
	case CodeDpadLeft, CodeDpadRight, CodeDpadUp, CodeDpadDown, CodeMoveHome, CodeMoveEnd:
		return true
	}
	return false
}

// CodeFromName returns the code for a name (case-insensitive), as printed
// by String. Returns CodeUnknown if the name is not recognized.
func CodeFromName(name string) Code {
	name = strings.TrimSpace(name)
	if len(name) == 1 {
		r := rune(name[0])
		if c, ok := Letter(r); ok {
			return c
		}
		if c, ok := Digit(r); ok {
			return c
		}
	}
	for c, n := range codeNames {
		if strings.EqualFold(n, name) {
			return c
		}
	}
	return CodeUnknown
}
