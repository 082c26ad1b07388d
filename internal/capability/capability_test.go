package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapPriority(t *testing.T) {
	tests := []struct {
		name      string
		caps      Capabilities
		class     InputClass
		variation Variation
	}{
		{"plain", Capabilities{State: StateEnabled}, ClassText, VariationNormal},
		{"url", Capabilities{State: StateEnabled, TypeHint: "url"}, ClassText, VariationURI},
		{"email", Capabilities{State: StateEnabled, TypeHint: "EMAIL"}, ClassText, VariationEmail},
		{"search", Capabilities{State: StateEnabled, TypeHint: "search"}, ClassText, VariationSearch},
		{"tel", Capabilities{State: StateEnabled, TypeHint: "tel"}, ClassPhone, VariationNormal},
		{"number", Capabilities{State: StateEnabled, TypeHint: "number"}, ClassNumber, VariationNormal},
		{"range", Capabilities{State: StateEnabled, TypeHint: "range"}, ClassNumber, VariationNormal},
		{"week", Capabilities{State: StateEnabled, TypeHint: "week"}, ClassDatetime, VariationNormal},
		{"date", Capabilities{State: StateEnabled, TypeHint: "date"}, ClassDatetime, VariationDate},
		{"time", Capabilities{State: StateEnabled, TypeHint: "time"}, ClassDatetime, VariationTime},
		{"password state beats hint", Capabilities{State: StatePassword, TypeHint: "email"}, ClassText, VariationPassword},
		{"password hint", Capabilities{State: StateEnabled, TypeHint: "password"}, ClassText, VariationPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Map(tt.caps)
			assert.Equal(t, tt.class, info.Class)
			assert.Equal(t, tt.variation, info.Variation)
			assert.False(t, info.KeyboardHidden)
		})
	}
}

func TestMapActions(t *testing.T) {
	assert.Equal(t, ActionDone, Map(Capabilities{State: StateEnabled}).Action)
	assert.Equal(t, ActionSearch, Map(Capabilities{State: StateEnabled, TypeHint: "search"}).Action)

	info := Map(Capabilities{State: StateEnabled, TypeHint: "textarea"})
	assert.True(t, info.MultiLine)
	assert.Equal(t, ActionNone, info.Action)

	info = Map(Capabilities{State: StateEnabled, TypeHint: "search", ActionHint: "go"})
	assert.Equal(t, ActionGo, info.Action)

	info = Map(Capabilities{State: StateEnabled, TypeHint: "textarea", ActionHint: "Send"})
	assert.Equal(t, ActionSend, info.Action)

	info = Map(Capabilities{State: StateEnabled, ActionHint: "Log in"})
	assert.Equal(t, ActionUnspecified, info.Action)
	assert.Equal(t, "Log in", info.ActionLabel)
	assert.Contains(t, info.String(), `"Log in"`)
}

func TestMapDisabledAndPlugin(t *testing.T) {
	info := Map(Capabilities{State: StateDisabled, TypeHint: "email"})
	assert.Equal(t, ClassNull, info.Class)
	assert.True(t, info.KeyboardHidden)

	info = Map(Capabilities{State: StatePluginHosted})
	assert.True(t, info.KeyboardHidden)
	assert.False(t, Capabilities{State: StatePluginHosted}.WantsKeyboard())
}

type countingRefresher struct{ n int }

func (c *countingRefresher) RequestEnable() { c.n++ }

func TestNegotiatorStaleTypeHint(t *testing.T) {
	r := &countingRefresher{}
	n := NewNegotiator(r)

	n.Update(Capabilities{State: StateEnabled, TypeHint: "email"})
	assert.Equal(t, VariationEmail, n.EditorInfo().Variation)

	n.Update(Capabilities{State: StatePassword})
	assert.Equal(t, VariationPassword, n.EditorInfo().Variation)
	assert.Equal(t, "", n.Capabilities().TypeHint)
	assert.True(t, n.Enabled())
	assert.Equal(t, 2, r.n)
	assert.Equal(t, uint64(2), n.Updates())
}

func TestNegotiatorTargetMismatch(t *testing.T) {
	r := &countingRefresher{}
	focused := false
	n := NewNegotiator(r, WithTargetCheck(func() bool { return focused }))

	n.Update(Capabilities{State: StateEnabled})
	assert.Equal(t, 0, r.n, "recorded but not refreshed")
	assert.True(t, n.Enabled())

	focused = true
	n.Update(Capabilities{State: StateDisabled})
	assert.Equal(t, 1, r.n)
	assert.False(t, n.Enabled())
}

func TestParseState(t *testing.T) {
	assert.Equal(t, StatePassword, ParseState("Password"))
	assert.Equal(t, StatePluginHosted, ParseState("plugin"))
	assert.Equal(t, StateDisabled, ParseState("bogus"))
	assert.Equal(t, "enabled", StateEnabled.String())
}
