package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeNested(t *testing.T) {
	dst := map[string]any{
		"bridge": map[string]any{"update_delay": "200ms", "log_calls": false},
		"list":   []any{1, 2},
	}
	src := map[string]any{
		"bridge": map[string]any{"log_calls": true},
		"list":   []any{3},
	}
	out := Merge(dst, src)
	assert.Equal(t, map[string]any{
		"bridge": map[string]any{"update_delay": "200ms", "log_calls": true},
		"list":   []any{3},
	}, out)

	// src must not alias into dst.
	src["list"].([]any)[0] = 99
	assert.Equal(t, []any{3}, out["list"])
}

func TestPaths(t *testing.T) {
	data := map[string]any{}
	SetByPath(data, "engine.ack_delay", "5ms")
	SetByPath(data, "engine.history", 10)

	v, ok := GetByPath(data, "engine.ack_delay")
	require.True(t, ok)
	assert.Equal(t, "5ms", v)

	_, ok = GetByPath(data, "engine.ack_delay.deeper")
	assert.False(t, ok)

	assert.True(t, DeleteByPath(data, "engine.history"))
	assert.False(t, DeleteByPath(data, "engine.history"))
	assert.False(t, DeleteByPath(data, "missing.key"))

	assert.Equal(t, map[string]any{"engine.ack_delay": "5ms"}, Flatten(data))
}

func TestDiff(t *testing.T) {
	old := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "gone": true}
	new := map[string]any{"a": map[string]any{"x": 1, "y": 3}, "added": "v"}
	assert.Equal(t, []string{"a.y", "added", "gone"}, Diff(old, new))
	assert.Empty(t, Diff(old, Clone(old)))
}

func TestManagerPriority(t *testing.T) {
	m := NewManager()
	m.Put(NewWithData("env", SourceEnv, map[string]any{"logging": map[string]any{"level": "debug"}}))
	m.Put(NewWithData("defaults", SourceBuiltin, map[string]any{"logging": map[string]any{"level": "info", "development": false}}))

	merged := m.Merged()
	v, _ := GetByPath(merged, "logging.level")
	assert.Equal(t, "debug", v)

	v, l, ok := m.Get("logging.development")
	require.True(t, ok)
	assert.Equal(t, false, v)
	assert.Equal(t, "defaults", l.Name)

	names := []string{}
	for _, l := range m.Layers() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"defaults", "env"}, names)
}

func TestManagerPutReplaces(t *testing.T) {
	m := NewManager()
	m.Put(NewWithData("file", SourceFile, map[string]any{"k": 1}))
	m.Put(NewWithData("file", SourceFile, map[string]any{"k": 2}))
	assert.Len(t, m.Layers(), 1)
	v, _, _ := m.Get("k")
	assert.Equal(t, 2, v)

	assert.True(t, m.Remove("file"))
	assert.False(t, m.Remove("file"))
	assert.Nil(t, m.Layer("file"))
}

func TestManagerSetAndReadOnly(t *testing.T) {
	m := NewManager()
	ro := New("defaults", SourceBuiltin)
	ro.ReadOnly = true
	m.Put(ro)
	m.Put(New("session", SourceSession))

	require.NoError(t, m.Set("session", "bridge.log_calls", true))
	v, _, ok := m.Get("bridge.log_calls")
	require.True(t, ok)
	assert.Equal(t, true, v)

	assert.ErrorIs(t, m.Set("defaults", "x", 1), ErrReadOnly)
	assert.ErrorIs(t, m.Set("nope", "x", 1), ErrLayerNotFound)
	assert.ErrorIs(t, m.Delete("defaults", "x"), ErrReadOnly)

	require.NoError(t, m.Delete("session", "bridge.log_calls"))
	_, _, ok = m.Get("bridge.log_calls")
	assert.False(t, ok)
}

func TestMergedIsCopy(t *testing.T) {
	m := NewManager()
	m.Put(NewWithData("defaults", SourceBuiltin, map[string]any{"a": map[string]any{"b": 1}}))
	out := m.Merged()
	out["a"].(map[string]any)["b"] = 2
	v, _ := GetByPath(m.Merged(), "a.b")
	assert.Equal(t, 1, v)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "builtin", SourceBuiltin.String())
	assert.Equal(t, "session", SourceSession.String())
	assert.Less(t, SourceFile.Priority(), SourceEnv.Priority())
}
