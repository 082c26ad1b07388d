// Package main runs the input bridge in a terminal against the simulated
// engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/imebridge/internal/app"
	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/host/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	redrawInterval = 100 * time.Millisecond
	shutdownGrace  = 5 * time.Second
)

func main() {
	os.Exit(run())
}

type options struct {
	app.Options
	typeHint string
}

func run() int {
	opts := parseFlags()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	term := terminal.New(screen)
	opts.IMM = term
	if opts.LogOutput == nil {
		// Logging to stderr would scribble over the screen.
		opts.LogLevel = orDefault(opts.LogLevel, "error")
	}

	application, err := app.New(opts.Options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}

	d := &demo{app: application, term: term, kb: terminal.NewKeyboard(), quit: make(chan struct{})}
	d.caps = capability.Capabilities{State: capability.StateEnabled, TypeHint: opts.typeHint}
	term.OnRestart(d.reconnect)

	if err := application.Start(); err != nil {
		term.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	application.Engine().Focus(d.caps)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go d.poll()
	d.loop(signals)

	term.Fini()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// demo connects terminal input to the bridge.
type demo struct {
	app  *app.Application
	term *terminal.Terminal
	kb   *terminal.Keyboard
	caps capability.Capabilities

	focused bool
	quit    chan struct{}
}

// reconnect runs on the UI loop when the bridge restarts input.
func (d *demo) reconnect() {
	conn, info := d.app.Bridge().Connect()
	d.kb.Attach(conn)
	d.focused = true
	d.app.Logger().Debug("reconnected %s", info)
}

// poll forwards terminal events to the UI loop until the screen closes.
func (d *demo) poll() {
	for {
		ev := d.term.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlQ {
				close(d.quit)
				return
			}
			d.key(ev)
		case *tcell.EventResize:
			d.redraw()
		}
	}
}

func (d *demo) key(ev *tcell.EventKey) {
	eng := d.app.Engine()
	switch ev.Key() {
	case tcell.KeyF2:
		eng.ResetInputState()
		return
	case tcell.KeyF3:
		eng.SetText("")
		return
	case tcell.KeyF4:
		d.toggleFocus()
		return
	case tcell.KeyF5:
		_ = d.app.UI().Post(d.app.Bridge().ShowInputMethodPicker)
		return
	}
	_ = d.app.UI().Invoke(func() {
		if !d.kb.Handle(ev) {
			d.term.Notice(fmt.Sprintf("unbound key %s", ev.Name()))
		}
	})
	d.redraw()
}

func (d *demo) toggleFocus() {
	var focused bool
	_ = d.app.UI().Invoke(func() { focused = d.focused })
	if focused {
		d.app.Engine().Blur()
		_ = d.app.UI().Invoke(func() { d.focused = false })
		return
	}
	d.app.Engine().Focus(d.caps)
}

func (d *demo) loop(signals <-chan os.Signal) {
	tick := time.NewTicker(redrawInterval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			d.redraw()
		case <-signals:
			return
		case <-d.quit:
			return
		}
	}
}

// redraw gathers the mirror on the UI loop and the document from the
// engine, then paints both.
func (d *demo) redraw() {
	var v terminal.View
	err := d.app.UI().Invoke(func() {
		v.Word = d.kb.Word()
		v.Mode = d.kb.Mode()
		v.Info = d.app.Bridge().EditorInfo().String()
		m := d.app.Bridge().Mirror()
		if m == nil {
			return
		}
		v.Mirror = m.Text()
		v.Composing, v.HasComp = m.Composing()
		v.Caret = m.Selection().End
	})
	if err != nil {
		return
	}
	v.Engine = d.app.Engine().Snapshot().Text
	stats := d.app.Channel().Stats()
	v.Stats = fmt.Sprintf("sent %d  syncs %d  pending %d  processed %d",
		stats.Sent, stats.Syncs, stats.Pending, d.app.Engine().Processed())
	d.term.Draw(v)
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool
	var logFile string

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml or .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload the configuration file when it changes")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log", "", "Write logs to this file")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua page script for the simulated engine")
	flag.StringVar(&opts.MetricsListen, "metrics", "", "Serve Prometheus metrics on this address")
	flag.StringVar(&opts.typeHint, "type", "text", "Type hint of the simulated field (text, email, number, url, password...)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "imebridge - input method bridge for a remote editing engine\n\n")
		fmt.Fprintf(os.Stderr, "Usage: imebridge [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  imebridge                          Compose into an empty field\n")
		fmt.Fprintf(os.Stderr, "  imebridge -type email              Simulate an email field\n")
		fmt.Fprintf(os.Stderr, "  imebridge -script upper.lua        Run a page script on input\n")
		fmt.Fprintf(os.Stderr, "  imebridge -c bridge.yaml -watch    Load and watch a config file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("imebridge %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.LogOutput = f
	}

	return opts
}
