// Package config provides layered configuration for imebridge.
//
// Layers are merged lowest priority first:
//
//	┌───────────────────────────────┐
//	│  4. Session (Config.Set)      │  ← Highest priority
//	├───────────────────────────────┤
//	│  3. Environment (IMEBRIDGE_*) │
//	├───────────────────────────────┤
//	│  2. User file (.toml / .yaml) │
//	├───────────────────────────────┤
//	│  1. Built-in defaults         │  ← Lowest priority
//	└───────────────────────────────┘
//
// # Sub-packages
//
//   - layer: layer storage, merging and path helpers
//   - loader: TOML, YAML and environment loaders
//   - watcher: fsnotify based file watching for live reload
//   - notify: change notification
//
// # Usage
//
//	cfg := config.New(config.WithFile("imebridge.toml"), config.WithWatcher(true))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	s := cfg.Settings()
//	fmt.Println(s.Bridge.UpdateDelay)
//
//	cfg.SubscribePath("synth", func(c notify.Change) {
//	    // re-read cfg.Settings().Synth
//	})
//
// Environment variables map to paths by section and snake_case key:
// IMEBRIDGE_BRIDGE_UPDATE_DELAY=50ms sets bridge.update_delay.
// IMEBRIDGE_LOG_LEVEL and IMEBRIDGE_SCRIPT are shorthands for
// logging.level and engine.script.
package config
