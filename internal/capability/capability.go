// Package capability maps the field metadata reported by the remote engine
// to keyboard behavior hints for the host input framework.
package capability

import (
	"fmt"
	"strings"
)

// State is the engine-reported input state of the focused element.
type State uint8

const (
	StateDisabled State = iota
	StateEnabled
	StatePassword
	// StatePluginHosted means an embedded plugin owns input; the keyboard
	// stays hidden.
	StatePluginHosted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	case StatePassword:
		return "password"
	case StatePluginHosted:
		return "plugin"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ParseState parses a state name. Unknown names map to StateDisabled.
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enabled":
		return StateEnabled
	case "password":
		return StatePassword
	case "plugin":
		return StatePluginHosted
	default:
		return StateDisabled
	}
}

// Capabilities is the tuple the engine reports for the focused element.
type Capabilities struct {
	State      State
	TypeHint   string
	ActionHint string
}

// String returns a compact description for logs.
func (c Capabilities) String() string {
	return fmt.Sprintf("%s type=%q action=%q", c.State, c.TypeHint, c.ActionHint)
}

// WantsKeyboard reports whether the soft keyboard should be visible.
func (c Capabilities) WantsKeyboard() bool {
	return c.State == StateEnabled || c.State == StatePassword
}

// InputClass is the coarse keyboard class.
type InputClass uint8

const (
	ClassNull InputClass = iota
	ClassText
	ClassNumber
	ClassPhone
	ClassDatetime
)

// String returns the class name.
func (c InputClass) String() string {
	switch c {
	case ClassNull:
		return "null"
	case ClassText:
		return "text"
	case ClassNumber:
		return "number"
	case ClassPhone:
		return "phone"
	case ClassDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("InputClass(%d)", uint8(c))
	}
}

// Variation refines an InputClass.
type Variation uint8

const (
	VariationNormal Variation = iota
	VariationPassword
	VariationURI
	VariationEmail
	VariationSearch
	VariationDate
	VariationTime
)

// String returns the variation name.
func (v Variation) String() string {
	switch v {
	case VariationNormal:
		return "normal"
	case VariationPassword:
		return "password"
	case VariationURI:
		return "uri"
	case VariationEmail:
		return "email"
	case VariationSearch:
		return "search"
	case VariationDate:
		return "date"
	case VariationTime:
		return "time"
	default:
		return fmt.Sprintf("Variation(%d)", uint8(v))
	}
}

// Action is the affordance of the keyboard's submit key.
type Action uint8

const (
	ActionUnspecified Action = iota
	ActionNone
	ActionGo
	ActionDone
	ActionNext
	ActionSearch
	ActionSend
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionUnspecified:
		return "unspecified"
	case ActionNone:
		return "none"
	case ActionGo:
		return "go"
	case ActionDone:
		return "done"
	case ActionNext:
		return "next"
	case ActionSearch:
		return "search"
	case ActionSend:
		return "send"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

var actionHints = map[string]Action{
	"go":     ActionGo,
	"done":   ActionDone,
	"next":   ActionNext,
	"search": ActionSearch,
	"send":   ActionSend,
}

// EditorInfo is the keyboard configuration handed to the host when an input
// connection is created.
type EditorInfo struct {
	Class     InputClass
	Variation Variation
	MultiLine bool

	Action Action
	// ActionLabel is set for a custom submit label.
	ActionLabel string

	// KeyboardHidden is set when the element takes no soft keyboard input.
	KeyboardHidden bool
}

// String returns a compact description for logs.
func (e EditorInfo) String() string {
	s := fmt.Sprintf("%s/%s action=%s", e.Class, e.Variation, e.Action)
	if e.ActionLabel != "" {
		s += fmt.Sprintf("(%q)", e.ActionLabel)
	}
	if e.MultiLine {
		s += " multiline"
	}
	if e.KeyboardHidden {
		s += " hidden"
	}
	return s
}

// typeRule is one entry in the fixed priority order.
type typeRule struct {
	hints     []string
	class     InputClass
	variation Variation
}

// typeRules are consulted in order; the first match wins.
var typeRules = []typeRule{
	{hints: []string{"password"}, class: ClassText, variation: VariationPassword},
	{hints: []string{"url"}, class: ClassText, variation: VariationURI},
	{hints: []string{"email"}, class: ClassText, variation: VariationEmail},
	{hints: []string{"search"}, class: ClassText, variation: VariationSearch},
	{hints: []string{"tel"}, class: ClassPhone, variation: VariationNormal},
	{hints: []string{"number", "range"}, class: ClassNumber, variation: VariationNormal},
	{hints: []string{"datetime", "datetime-local", "month", "week"}, class: ClassDatetime, variation: VariationNormal},
	{hints: []string{"date"}, class: ClassDatetime, variation: VariationDate},
	{hints: []string{"time"}, class: ClassDatetime, variation: VariationTime},
}

// Map converts engine capabilities to host keyboard hints.
func Map(c Capabilities) EditorInfo {
	switch c.State {
	case StateDisabled:
		return EditorInfo{Class: ClassNull, Action: ActionNone, KeyboardHidden: true}
	case StatePluginHosted:
		return EditorInfo{Class: ClassText, Action: ActionNone, KeyboardHidden: true}
	}

	hint := strings.ToLower(strings.TrimSpace(c.TypeHint))
	info := EditorInfo{Class: ClassText, Variation: VariationNormal}
	if c.State == StatePassword {
		info.Variation = VariationPassword
	} else {
		for _, rule := range typeRules {
			if matches(rule.hints, hint) {
				info.Class = rule.class
				info.Variation = rule.variation
				break
			}
		}
	}
	info.MultiLine = hint == "textarea" && info.Variation == VariationNormal

	switch {
	case info.Variation == VariationSearch:
		info.Action = ActionSearch
	case info.MultiLine:
		info.Action = ActionNone
	default:
		info.Action = ActionDone
	}

	if ah := strings.TrimSpace(c.ActionHint); ah != "" {
		if a, ok := actionHints[strings.ToLower(ah)]; ok {
			info.Action = a
		} else {
			info.Action = ActionUnspecified
			info.ActionLabel = ah
		}
	}
	return info
}

func matches(hints []string, hint string) bool {
	for _, h := range hints {
		if h == hint {
			return true
		}
	}
	return false
}
