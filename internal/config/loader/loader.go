// Package loader reads configuration sources into nested maps.
//
// Files are TOML or YAML, chosen by extension. The environment loader maps
// prefixed variables such as IMEBRIDGE_BRIDGE_UPDATE_DELAY onto the
// dotted path bridge.update_delay.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/imebridge/internal/config/layer"
)

// ErrUnsupportedFormat is returned for a file extension with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ErrIncludeDepth is returned when @include nesting exceeds the limit.
var ErrIncludeDepth = errors.New("include depth exceeded")

// MaxIncludeDepth bounds @include nesting.
const MaxIncludeDepth = 8

// Loader produces a configuration map. A missing source yields nil, nil.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the read side of the OS the loaders need.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// Format is a file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

type decodeFunc func(source string, data []byte) (map[string]any, error)

func decoderFor(f Format) decodeFunc {
	if f == FormatYAML {
		return decodeYAML
	}
	return decodeTOML
}

// FileLoader loads one file and the files it includes.
type FileLoader struct {
	fs     FileSystem
	path   string
	format Format
}

// NewFileLoader creates a loader for path, choosing the decoder by extension.
func NewFileLoader(path string) (*FileLoader, error) {
	return NewFileLoaderWithFS(OSFS{}, path)
}

// NewFileLoaderWithFS is NewFileLoader over a custom file system.
func NewFileLoaderWithFS(fsys FileSystem, path string) (*FileLoader, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return &FileLoader{fs: fsys, path: path, format: f}, nil
}

// Path returns the file path.
func (l *FileLoader) Path() string { return l.path }

// Load reads the file and resolves @include directives. Included files
// are merged underneath the including file.
func (l *FileLoader) Load() (map[string]any, error) {
	return l.load(l.path, MaxIncludeDepth)
}

// LoadReader decodes r in the loader's format without include handling.
func (l *FileLoader) LoadReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return decoderFor(l.format)("<reader>", data)
}

func (l *FileLoader) load(path string, depth int) (map[string]any, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepth, path)
	}
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg, err := decoderFor(f)(path, data)
	if err != nil || cfg == nil {
		return cfg, err
	}

	raw, ok := cfg["@include"]
	if !ok {
		return cfg, nil
	}
	delete(cfg, "@include")

	includes, err := includeList(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := make(map[string]any)
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		sub, err := l.load(inc, depth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		base = layer.Merge(base, sub)
	}
	return layer.Merge(base, cfg), nil
}

func includeList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("@include entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("@include must be a string or list, got %T", raw)
	}
}

// ParseError reports a decode failure with its position when known.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
