// Package layer holds prioritized configuration layers and merges them into
// a single view. Higher priority layers override lower ones key by key.
package layer

import "time"

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceBuiltin is the compiled-in defaults.
	SourceBuiltin Source = iota
	// SourceFile is a user configuration file.
	SourceFile
	// SourceEnv is the process environment.
	SourceEnv
	// SourceSession holds values set at runtime, for example from flags.
	SourceSession
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

// Priority returns the default merge priority for the source.
func (s Source) Priority() int {
	return int(s) * 100
}

// Layer is a single named configuration source.
type Layer struct {
	Name     string
	Priority int
	Source   Source
	// Path is set for file layers.
	Path    string
	Data    map[string]any
	ModTime time.Time
	// ReadOnly rejects Set and Delete through the manager.
	ReadOnly bool
}

// New creates an empty layer with the source's default priority.
func New(name string, source Source) *Layer {
	return NewWithData(name, source, nil)
}

// NewWithData creates a layer holding data.
func NewWithData(name string, source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: source.Priority(),
		Data:     data,
		ModTime:  time.Now(),
	}
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Data = Clone(l.Data)
	return &c
}
