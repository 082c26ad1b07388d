package terminal

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/host"
)

var _ host.InputMethodManager = (*Terminal)(nil)

func newSim(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	term := New(sim)
	require.NoError(t, term.Init())
	sim.SetSize(120, 12)
	t.Cleanup(term.Fini)
	return term, sim
}

// row returns line y of the simulated screen with trailing blanks removed.
func row(sim tcell.SimulationScreen, y int) string {
	cells, w, _ := sim.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func TestTerminalTracksManagerCalls(t *testing.T) {
	term := New(tcell.NewSimulationScreen("UTF-8"))

	restarted := 0
	term.OnRestart(func() { restarted++ })
	term.RestartInput()
	term.RestartInput()
	term.ShowSoftInput()
	term.UpdateSelection(1, 3, 0, 3)
	term.UpdateExtractedText(7, engine.Extracted{Text: "abc"})

	st := term.State()
	assert.Equal(t, 2, restarted)
	assert.Equal(t, 2, st.Restarts)
	assert.True(t, st.Visible)
	assert.Equal(t, [4]int{1, 3, 0, 3}, st.Selection)
	assert.Equal(t, "abc", st.Extracted.Text)
	assert.False(t, term.IsFullscreenMode())

	term.HideSoftInput()
	assert.False(t, term.State().Visible)

	assert.True(t, term.IsActive())
	term.SetActive(false)
	assert.False(t, term.IsActive())

	term.ShowInputMethodPicker()
	assert.Contains(t, term.State().Message, "picker")
}

func TestTerminalDraw(t *testing.T) {
	term, sim := newSim(t)
	term.ShowSoftInput()

	term.Draw(View{
		Mirror:    "hello wor",
		Composing: engine.Range{Start: 6, End: 9},
		HasComp:   true,
		Caret:     9,
		Engine:    "hello wor",
		Word:      "wor",
		Mode:      ModeCompose,
	})

	assert.True(t, strings.HasPrefix(row(sim, 0), "imebridge"))
	assert.Contains(t, row(sim, 0), "keyboard shown")
	assert.Equal(t, "mirror hello wor", row(sim, 2))
	assert.Equal(t, "engine hello wor", row(sim, 3))
	assert.Contains(t, row(sim, 5), `word "wor"`)

	cells, w, _ := sim.GetContents()
	_, _, attr := cells[2*w+7+6].Style.Decompose()
	assert.NotZero(t, attr&tcell.AttrUnderline)
}

func TestTerminalDrawWideRunes(t *testing.T) {
	term, sim := newSim(t)

	term.Draw(View{Mirror: "日本", Engine: "日本", Caret: 2})

	cells, w, _ := sim.GetContents()
	assert.Equal(t, '日', cells[2*w+7].Runes[0])
	assert.Equal(t, '本', cells[2*w+9].Runes[0])
}
