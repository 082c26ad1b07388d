package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/imebridge/internal/config/layer"
)

// DefaultEnvPrefix is the prefix scanned by NewEnvLoader callers that do
// not choose their own.
const DefaultEnvPrefix = "IMEBRIDGE_"

// EnvLoader builds a configuration map from prefixed environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix, which
// should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix: prefix,
		mapping: map[string]string{
			prefix + "LOG_LEVEL": "logging.level",
			prefix + "SCRIPT":    "engine.script",
		},
		environ: os.Environ,
	}
}

// Map routes a variable to an explicit path, overriding the derived one.
func (l *EnvLoader) Map(env, path string) {
	l.mapping[env] = path
}

// Load implements Loader. Empty values are kept as empty strings.
func (l *EnvLoader) Load() (map[string]any, error) {
	cfg := make(map[string]any)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		layer.SetByPath(cfg, path, parseValue(value))
	}
	return cfg, nil
}

// envToPath converts IMEBRIDGE_BRIDGE_UPDATE_DELAY to bridge.update_delay.
// The first word names the section and the rest the snake_case key.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}

// parseValue guesses a type for a raw environment string. Only words are
// read as booleans so numeric settings such as platform_version=0 survive.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "":
		return s
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}
