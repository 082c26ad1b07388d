package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	text       string
	start, end int
}

func (d *fakeDoc) Text() string          { return d.text }
func (d *fakeDoc) SetText(text string)   { d.text = text; d.start, d.end = len(text), len(text) }
func (d *fakeDoc) Selection() (int, int) { return d.start, d.end }

func TestKeyDownListener(t *testing.T) {
	r := New()
	defer r.Close()

	allow, err := r.OnKeyDown(29, 0)
	require.NoError(t, err)
	assert.True(t, allow, "no listener allows the default")

	require.NoError(t, r.LoadString(`
		function on_keydown(code, mods)
		  if code == 29 then return false end
		end`, "page"))
	assert.True(t, r.HasListener(KeyDownListener))
	assert.False(t, r.HasListener(InputListener))

	allow, err = r.OnKeyDown(29, 0)
	require.NoError(t, err)
	assert.False(t, allow)

	allow, err = r.OnKeyDown(30, 0)
	require.NoError(t, err)
	assert.True(t, allow, "nil return allows the default")
}

func TestDocumentModule(t *testing.T) {
	r := New()
	defer r.Close()
	doc := &fakeDoc{text: "abc", start: 1, end: 2}
	r.Bind(doc)

	require.NoError(t, r.LoadString(`
		function on_input(text)
		  local s, e = doc.selection()
		  if text == "abc" and s == 1 and e == 2 then
		    doc.set_text(string.upper(doc.text()))
		  end
		end`, "page"))
	require.NoError(t, r.OnInput("abc"))
	assert.Equal(t, "ABC", doc.text)
}

func TestSandboxRemovesLoaders(t *testing.T) {
	r := New()
	defer r.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "require"} {
		err := r.LoadString(name+`("x")`, "sandbox")
		assert.ErrorIs(t, err, ErrScript, name)
	}
	err := r.LoadString(`os.exit(1)`, "sandbox")
	assert.ErrorIs(t, err, ErrScript)
}

func TestTimeout(t *testing.T) {
	r := New(WithTimeout(20 * time.Millisecond))
	defer r.Close()

	require.NoError(t, r.LoadString(`function on_input(text) while true do end end`, "page"))
	start := time.Now()
	err := r.OnInput("x")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.NoError(t, r.LoadString(`x = 1`, "after"), "runtime usable after a timeout")
}

func TestLoadFileAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function on_keydown() return false end`), 0o600))

	r := New()
	require.NoError(t, r.LoadFile(path))
	allow, err := r.OnKeyDown(1, 0)
	require.NoError(t, err)
	assert.False(t, allow)

	r.Close()
	r.Close()
	assert.ErrorIs(t, r.OnInput("x"), ErrClosed)
	assert.False(t, r.HasListener(KeyDownListener))
}
