// Package app wires the bridge, the simulated engine and their ambient
// services into one runnable unit and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/imebridge/internal/bridge"
	"github.com/dshills/imebridge/internal/config"
	"github.com/dshills/imebridge/internal/config/notify"
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/enginesim"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/input/synth"
	"github.com/dshills/imebridge/internal/logging"
	"github.com/dshills/imebridge/internal/loop"
	"github.com/dshills/imebridge/internal/metrics"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/script"
)

// Options configures the application. Zero values fall back to the
// configuration file and environment.
type Options struct {
	// ConfigPath is a .toml or .yaml file. Empty uses defaults and env.
	ConfigPath string
	// Watch reloads the configuration file on change.
	Watch bool

	// LogLevel overrides logging.level.
	LogLevel string
	// LogOutput overrides logging.file and stderr.
	LogOutput io.Writer

	// ScriptPath overrides engine.script.
	ScriptPath string
	// MetricsListen overrides metrics.listen.
	MetricsListen string

	// IMM is the host input method manager. Required.
	IMM       host.InputMethodManager
	Clipboard host.Clipboard
}

// Application owns every long-lived component.
type Application struct {
	mu sync.Mutex

	opts    Options
	config  *config.Config
	logger  *logging.Logger
	logFile *os.File
	metrics *metrics.Metrics

	ui      *loop.Loop
	channel *outbound.Channel
	synth   *synth.Synthesizer
	script  *script.Runtime
	engine  *enginesim.Engine
	bridge  *bridge.Context
	server  *metricsServer

	subs    []*notify.Subscription
	running atomic.Bool
	stopped atomic.Bool
}

// New loads configuration and builds every component. Nothing runs until
// Start.
func New(opts Options) (*Application, error) {
	if opts.IMM == nil {
		return nil, ErrNoHost
	}
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.release()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration.
	app.config = config.New(
		config.WithFile(app.opts.ConfigPath),
		config.WithWatcher(app.opts.Watch),
	)
	if err := app.config.Load(context.Background()); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if err := app.applyOverrides(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	s := app.config.Settings()

	// 2. Logging.
	logger, err := app.buildLogger(s.Logging)
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.logger = logger

	// 3. Metrics.
	app.metrics = metrics.New(s.Metrics.Namespace)

	// 4. UI loop and outbound channel.
	app.ui = loop.New("ui",
		loop.WithStrictThreading(s.Bridge.StrictThreading),
		loop.WithPanicHandler(app.panicHandler),
	)
	app.channel = outbound.NewChannel(
		outbound.WithObserver(app.metrics),
		outbound.WithLogger(app.logger.WithComponent("outbound")),
	)

	// 5. Key synthesis.
	app.synth = synth.New(
		synth.WithEnabled(s.Synth.Enabled),
		synth.WithPlatformVersion(s.Synth.PlatformVersion),
		synth.WithExceptions(s.Synth.Exceptions...),
	)

	// 6. Bridge context.
	bopts := []bridge.Option{
		bridge.WithLogger(app.logger),
		bridge.WithSynthesizer(app.synth),
		bridge.WithMetrics(app.metrics),
		bridge.WithUpdateDelay(s.Bridge.UpdateDelay),
		bridge.WithLogCalls(s.Bridge.LogCalls),
		bridge.WithBufferOptions(
			buffer.WithMaxLength(s.Bridge.MaxLength),
			buffer.WithNormalizeNewlines(s.Bridge.NormalizeNewlines),
		),
	}
	if app.opts.Clipboard != nil {
		bopts = append(bopts, bridge.WithClipboard(app.opts.Clipboard))
	}
	app.bridge, err = bridge.NewContext(app.ui, app.channel, app.opts.IMM, bopts...)
	if err != nil {
		return &InitError{Component: "bridge", Err: err}
	}

	// 7. Page script and simulated engine.
	eopts := []enginesim.Option{
		enginesim.WithLogger(app.logger),
		enginesim.WithAckDelay(s.Engine.AckDelay),
		enginesim.WithHistory(s.Engine.History),
		enginesim.WithContent(s.Engine.Content),
	}
	if s.Engine.Script != "" {
		app.script = script.New(
			script.WithTimeout(s.Engine.ScriptTimeout),
			script.WithLogger(app.logger),
		)
		if err := app.script.LoadFile(s.Engine.Script); err != nil {
			return &InitError{Component: "script", Err: err}
		}
		eopts = append(eopts, enginesim.WithScript(app.script))
	}
	app.engine = enginesim.New(app.channel, app.bridge.Notifier(), eopts...)

	// 8. Live reload.
	app.watchConfig()

	app.logger.Info("initialized context=%s config=%q", app.bridge.ID(), app.config.Path())
	return nil
}

// applyOverrides writes command line values into the session layer.
func (app *Application) applyOverrides() error {
	overrides := map[string]string{
		"logging.level":  app.opts.LogLevel,
		"engine.script":  app.opts.ScriptPath,
		"metrics.listen": app.opts.MetricsListen,
	}
	for path, v := range overrides {
		if v == "" {
			continue
		}
		if err := app.config.Set(path, v); err != nil {
			return fmt.Errorf("override %s: %w", path, err)
		}
	}
	return nil
}

func (app *Application) buildLogger(s config.LoggingConfig) (*logging.Logger, error) {
	cfg := s.LoggerConfig()
	switch {
	case app.opts.LogOutput != nil:
		cfg.Output = app.opts.LogOutput
	case s.File != "":
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		app.logFile = f
		cfg.Output = f
	}
	return logging.New(cfg), nil
}

func (app *Application) panicHandler(name string, recovered any, stack []byte) {
	err := &RecoveredPanicError{Loop: name, Value: recovered, Stack: string(stack)}
	if app.logger != nil {
		app.logger.Error("%v\n%s", err, err.Stack)
	}
}

// watchConfig keeps runtime-adjustable settings in step with the
// configuration. Settings baked into components at construction take
// effect on the next start.
func (app *Application) watchConfig() {
	app.subs = append(app.subs,
		app.config.SubscribePath("synth", func(notify.Change) {
			s := app.config.Settings().Synth
			app.synth.Configure(s.Enabled, s.PlatformVersion, s.Exceptions)
		}),
		app.config.SubscribePath("logging.level", func(notify.Change) {
			app.logger.SetLevel(logging.ParseLevel(app.config.Settings().Logging.Level))
		}),
	)
}

// Config returns the configuration.
func (app *Application) Config() *config.Config { return app.config }

// Logger returns the root logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// Metrics returns the metrics registry wrapper.
func (app *Application) Metrics() *metrics.Metrics { return app.metrics }

// UI returns the UI loop. Host calls into the bridge must run on it.
func (app *Application) UI() *loop.Loop { return app.ui }

// Bridge returns the per-connection context.
func (app *Application) Bridge() *bridge.Context { return app.bridge }

// Engine returns the simulated remote engine.
func (app *Application) Engine() *enginesim.Engine { return app.engine }

// Synthesizer returns the key synthesizer.
func (app *Application) Synthesizer() *synth.Synthesizer { return app.synth }

// Channel returns the outbound channel.
func (app *Application) Channel() *outbound.Channel { return app.channel }
