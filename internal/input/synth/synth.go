// Package synth turns a single committed character into the key-down and
// key-up events a physical keyboard would have produced.
//
// Lookup goes through three steps: the platform exception table, the
// character-to-key map, then fallback. Callers treat any error as a request
// to send the character as inserted text instead.
package synth

import (
	"errors"
	"sync"

	"github.com/dshills/imebridge/internal/input/key"
)

// Errors returned by Synthesize. All of them mean "fall back to text".
var (
	ErrDisabled  = errors.New("key synthesis disabled")
	ErrException = errors.New("character listed in exception table")
	ErrUnmapped  = errors.New("no key mapping for character")
)

// Synthesizer maps characters to key event sequences. Safe for concurrent
// use.
type Synthesizer struct {
	mu         sync.RWMutex
	enabled    bool
	version    int
	keymap     Keymap
	exceptions []Exception
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithPlatformVersion sets the platform version used to select exceptions.
func WithPlatformVersion(v int) Option {
	return func(s *Synthesizer) {
		s.version = v
	}
}

// WithKeymap replaces the character map.
func WithKeymap(m Keymap) Option {
	return func(s *Synthesizer) {
		if m != nil {
			s.keymap = m
		}
	}
}

// WithExceptions appends entries to the exception table.
func WithExceptions(e ...Exception) Option {
	return func(s *Synthesizer) {
		s.exceptions = append(s.exceptions, e...)
	}
}

// WithEnabled turns synthesis on or off.
func WithEnabled(enabled bool) Option {
	return func(s *Synthesizer) {
		s.enabled = enabled
	}
}

// New creates a synthesizer with the US keymap and the default exceptions.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		enabled:    true,
		keymap:     USKeymap(),
		exceptions: DefaultExceptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure replaces the runtime settings. Used on config reload.
func (s *Synthesizer) Configure(enabled bool, version int, extra []Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.version = version
	s.exceptions = append(DefaultExceptions(), extra...)
}

// Lookup returns the stroke for r without building events.
func (s *Synthesizer) Lookup(r rune) (Stroke, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled {
		return Stroke{}, ErrDisabled
	}
	if excluded(s.exceptions, s.version, r) {
		return Stroke{}, ErrException
	}
	st, ok := s.keymap[r]
	if !ok {
		return Stroke{}, ErrUnmapped
	}
	return st, nil
}

// Synthesize returns modifier downs, the key's down and up pair, then
// modifier ups in reverse order.
func (s *Synthesizer) Synthesize(r rune) ([]key.Event, error) {
	st, err := s.Lookup(r)
	if err != nil {
		return nil, err
	}

	mods := st.Mods.Codes()
	events := make([]key.Event, 0, 2+2*len(mods))
	held := key.ModNone
	for _, c := range mods {
		held = held.With(c.Modifier())
		events = append(events, key.Down(c, 0, held))
	}
	events = append(events,
		key.Down(st.Code, r, held),
		key.Up(st.Code, r, held),
	)
	for i := len(mods) - 1; i >= 0; i-- {
		held = held.Without(mods[i].Modifier())
		events = append(events, key.Up(mods[i], 0, held))
	}
	for i := range events {
		events[i].Synthesized = true
	}
	return events, nil
}
