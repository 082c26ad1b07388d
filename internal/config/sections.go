package config

import (
	"fmt"
	"time"

	"github.com/dshills/imebridge/internal/input/synth"
	"github.com/dshills/imebridge/internal/logging"
)

// Settings is the typed view of the merged configuration. Values are
// snapshots; mutate through Config.Set.
type Settings struct {
	Logging LoggingConfig `yaml:"logging"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Synth   SynthConfig   `yaml:"synth"`
	Engine  EngineConfig  `yaml:"engine"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	// File, when set, receives logs instead of stderr.
	File string `yaml:"file"`
}

// BridgeConfig configures the per-connection context.
type BridgeConfig struct {
	// UpdateDelay is the coalescing window of the delayed state updater.
	UpdateDelay time.Duration `yaml:"update_delay"`
	// StrictThreading panics when a UI-only call arrives off the UI loop.
	StrictThreading bool `yaml:"strict_threading"`
	// LogCalls wraps connections in a logging decorator.
	LogCalls bool `yaml:"log_calls"`
	// MaxLength caps the mirror text in runes. Zero is unlimited.
	MaxLength int `yaml:"max_length"`
	// NormalizeNewlines converts CRLF and CR to LF on insert.
	NormalizeNewlines bool `yaml:"normalize_newlines"`
}

// SynthConfig configures single-character key synthesis.
type SynthConfig struct {
	Enabled         bool              `yaml:"enabled"`
	PlatformVersion int               `yaml:"platform_version"`
	Exceptions      []synth.Exception `yaml:"exceptions"`
}

// EngineConfig configures the simulated remote engine.
type EngineConfig struct {
	// Script is a Lua file with page listeners. Empty runs none.
	Script        string        `yaml:"script"`
	ScriptTimeout time.Duration `yaml:"script_timeout"`
	// AckDelay is how long the engine holds a sync marker before release.
	AckDelay time.Duration `yaml:"ack_delay"`
	History  int           `yaml:"history"`
	// Content seeds the document.
	Content string `yaml:"content"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	// Listen is the HTTP address for /metrics. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Logging: LoggingConfig{Level: "info"},
		Bridge: BridgeConfig{
			UpdateDelay:     200 * time.Millisecond,
			StrictThreading: true,
		},
		Synth: SynthConfig{Enabled: true, PlatformVersion: 14},
		Engine: EngineConfig{
			ScriptTimeout: 250 * time.Millisecond,
			AckDelay:      0,
			History:       1024,
		},
		Metrics: MetricsConfig{Namespace: "imebridge"},
	}
}

// defaultsMap is DefaultSettings in the nested map shape layers use.
func defaultsMap() map[string]any {
	d := DefaultSettings()
	return map[string]any{
		"logging": map[string]any{
			"level":       d.Logging.Level,
			"development": d.Logging.Development,
			"file":        d.Logging.File,
		},
		"bridge": map[string]any{
			"update_delay":       d.Bridge.UpdateDelay.String(),
			"strict_threading":   d.Bridge.StrictThreading,
			"log_calls":          d.Bridge.LogCalls,
			"max_length":         d.Bridge.MaxLength,
			"normalize_newlines": d.Bridge.NormalizeNewlines,
		},
		"synth": map[string]any{
			"enabled":          d.Synth.Enabled,
			"platform_version": d.Synth.PlatformVersion,
		},
		"engine": map[string]any{
			"script":         d.Engine.Script,
			"script_timeout": d.Engine.ScriptTimeout.String(),
			"ack_delay":      d.Engine.AckDelay.String(),
			"history":        d.Engine.History,
			"content":        d.Engine.Content,
		},
		"metrics": map[string]any{
			"namespace": d.Metrics.Namespace,
			"listen":    d.Metrics.Listen,
		},
	}
}

// LoggerConfig converts the logging section for logging.New.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(l.Level)
	cfg.Development = l.Development
	return cfg
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	var errs ValidationErrors
	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{Path: "logging.level", Value: s.Logging.Level, Message: "must be debug, info, warn or error"})
	}
	if s.Bridge.UpdateDelay <= 0 {
		errs = append(errs, &ValidationError{Path: "bridge.update_delay", Value: s.Bridge.UpdateDelay, Message: "must be positive"})
	}
	if s.Bridge.MaxLength < 0 {
		errs = append(errs, &ValidationError{Path: "bridge.max_length", Value: s.Bridge.MaxLength, Message: "must not be negative"})
	}
	if s.Synth.PlatformVersion < 0 {
		errs = append(errs, &ValidationError{Path: "synth.platform_version", Value: s.Synth.PlatformVersion, Message: "must not be negative"})
	}
	for i, e := range s.Synth.Exceptions {
		if e.MaxVersion != 0 && e.MaxVersion < e.MinVersion {
			errs = append(errs, &ValidationError{Path: fmt.Sprintf("synth.exceptions[%d]", i), Value: e, Message: "max_version below min_version"})
		}
	}
	if s.Engine.AckDelay < 0 {
		errs = append(errs, &ValidationError{Path: "engine.ack_delay", Value: s.Engine.AckDelay, Message: "must not be negative"})
	}
	if s.Engine.ScriptTimeout <= 0 {
		errs = append(errs, &ValidationError{Path: "engine.script_timeout", Value: s.Engine.ScriptTimeout, Message: "must be positive"})
	}
	if s.Engine.History < 0 {
		errs = append(errs, &ValidationError{Path: "engine.history", Value: s.Engine.History, Message: "must not be negative"})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
