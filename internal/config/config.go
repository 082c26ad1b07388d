package config

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/imebridge/internal/config/layer"
	"github.com/dshills/imebridge/internal/config/loader"
	"github.com/dshills/imebridge/internal/config/notify"
	"github.com/dshills/imebridge/internal/config/watcher"
	"github.com/dshills/imebridge/internal/input/synth"
	"github.com/dshills/imebridge/internal/logging"
)

// Layer names.
const (
	LayerDefaults = "defaults"
	LayerFile     = "file"
	LayerEnv      = "env"
	LayerSession  = "session"
)

// Config owns the configuration layers and the typed settings derived
// from them. It is safe for concurrent use.
type Config struct {
	mu       sync.RWMutex
	layers   *layer.Manager
	notifier *notify.Notifier
	watcher  *watcher.Watcher
	logger   *logging.Logger

	path      string
	envPrefix string
	watch     bool

	settings Settings
	closed   bool
}

// Option configures a Config.
type Option func(*Config)

// WithFile sets the user configuration file (.toml, .yaml or .yml).
func WithFile(path string) Option {
	return func(c *Config) { c.path = path }
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) { c.envPrefix = prefix }
}

// WithWatcher enables live reload of the configuration file.
func WithWatcher(enable bool) Option {
	return func(c *Config) { c.watch = enable }
}

// WithLogger sets the logger used for reload failures.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		layers:    layer.NewManager(),
		notifier:  notify.New(),
		logger:    logging.NewNop(),
		envPrefix: loader.DefaultEnvPrefix,
		settings:  DefaultSettings(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("config")

	defaults := layer.NewWithData(LayerDefaults, layer.SourceBuiltin, defaultsMap())
	defaults.ReadOnly = true
	c.layers.Put(defaults)
	c.layers.Put(layer.New(LayerSession, layer.SourceSession))
	return c
}

// Load reads the file and environment layers, validates the result and
// starts the watcher when enabled. A missing file is not an error.
func (c *Config) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.loadFileLayer(); err != nil {
		c.mu.Unlock()
		return err
	}
	env, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("loading environment: %w", err)
	}
	c.layers.Put(layer.NewWithData(LayerEnv, layer.SourceEnv, env))

	s, err := decode(c.layers.Merged())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.settings = s
	startWatch := c.watch && c.path != "" && c.watcher == nil
	c.mu.Unlock()

	if startWatch {
		return c.startWatcher()
	}
	return nil
}

func (c *Config) loadFileLayer() error {
	if c.path == "" {
		return nil
	}
	fl, err := loader.NewFileLoader(c.path)
	if err != nil {
		return err
	}
	data, err := fl.Load()
	if err != nil {
		return err
	}
	l := layer.NewWithData(LayerFile, layer.SourceFile, data)
	l.Path = c.path
	c.layers.Put(l)
	return nil
}

func (c *Config) startWatcher() error {
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		c.logger.Warn("watch error: %v", err)
	}))
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	if err := w.Watch(c.path); err != nil {
		_ = w.Stop()
		return fmt.Errorf("watching %s: %w", c.path, err)
	}
	w.OnChange(func(ev watcher.Event) {
		c.logger.Debug("config file %s: %s", ev.Op, ev.Path)
		if err := c.Reload(); err != nil {
			c.logger.Warn("reload %s: %v", ev.Path, err)
		}
	})
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// Reload re-reads the file layer. On a parse or validation error the
// previous settings stay in effect. Changed paths are announced to
// subscribers followed by one reload event.
func (c *Config) Reload() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	before := c.layers.Merged()
	var prevFile *layer.Layer
	if l := c.layers.Layer(LayerFile); l != nil {
		prevFile = l.Clone()
	}
	if err := c.loadFileLayer(); err != nil {
		c.mu.Unlock()
		return err
	}
	after := c.layers.Merged()
	s, err := decode(after)
	if err != nil {
		if prevFile != nil {
			c.layers.Put(prevFile)
		} else {
			c.layers.Remove(LayerFile)
		}
		c.mu.Unlock()
		return err
	}
	c.settings = s
	c.mu.Unlock()

	c.announce(before, after, c.path)
	c.notifier.Notify(notify.Change{Type: notify.ChangeReload, Source: c.path})
	return nil
}

// Settings returns the current typed settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.settings
	s.Synth.Exceptions = append([]synth.Exception(nil), s.Synth.Exceptions...)
	return s
}

// Get returns the effective raw value at a dotted path.
func (c *Config) Get(path string) (any, bool) {
	v, _, ok := c.layers.Get(path)
	return v, ok
}

// Source returns the name of the layer providing path.
func (c *Config) Source(path string) string {
	_, l, ok := c.layers.Get(path)
	if !ok {
		return ""
	}
	return l.Name
}

// Set writes a value into the session layer. The write is rejected, and
// nothing changes, when the result fails validation.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	before := c.layers.Merged()
	old, hadOld := layer.GetByPath(c.layers.Layer(LayerSession).Data, path)
	if err := c.layers.Set(LayerSession, path, value); err != nil {
		c.mu.Unlock()
		return err
	}
	after := c.layers.Merged()
	s, err := decode(after)
	if err != nil {
		if hadOld {
			_ = c.layers.Set(LayerSession, path, old)
		} else {
			_ = c.layers.Delete(LayerSession, path)
		}
		c.mu.Unlock()
		return err
	}
	c.settings = s
	c.mu.Unlock()

	c.announce(before, after, LayerSession)
	return nil
}

func (c *Config) announce(before, after map[string]any, source string) {
	for _, p := range layer.Diff(before, after) {
		ov, hadOld := layer.GetByPath(before, p)
		nv, hasNew := layer.GetByPath(after, p)
		ch := notify.Change{Path: p, Type: notify.ChangeSet, OldValue: ov, NewValue: nv, Source: source}
		if hadOld && !hasNew {
			ch.Type = notify.ChangeDelete
			ch.NewValue = nil
		}
		c.notifier.Notify(ch)
	}
}

// Subscribe registers an observer for every change.
func (c *Config) Subscribe(fn notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(fn)
}

// SubscribePath registers an observer for one section or setting.
func (c *Config) SubscribePath(path string, fn notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(path, fn)
}

// Path returns the configuration file path, if any.
func (c *Config) Path() string {
	return c.path
}

// Close stops the watcher. It is idempotent.
func (c *Config) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		return w.Stop()
	}
	return nil
}

// decode converts a merged map into validated Settings. Keys absent from
// the map keep their defaults.
func decode(merged map[string]any) (Settings, error) {
	raw, err := yaml.Marshal(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding merged config: %w", err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
