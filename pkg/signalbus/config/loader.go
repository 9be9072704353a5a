package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return FromMap(m)
}

// FromJSON parses JSON data into Settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return FromMap(m)
}

// ApplyEnv overrides settings from environment variables named
// PREFIX_<KEY>, e.g. SIGNALBUS_POLL_INTERVAL.
func (s Settings) ApplyEnv(prefix string) (Settings, error) {
	lookup := func(key string) (string, bool) {
		return os.LookupEnv(prefix + "_" + strings.ToUpper(key))
	}

	if raw, ok := lookup(KeyPollInterval); ok {
		d, err := parseEnvDuration(KeyPollInterval, raw)
		if err != nil {
			return Settings{}, err
		}
		s.PollInterval = d
	}
	if raw, ok := lookup(KeyLockTimeout); ok {
		d, err := parseEnvDuration(KeyLockTimeout, raw)
		if err != nil {
			return Settings{}, err
		}
		s.LockTimeout = d
	}
	if raw, ok := lookup(KeyLogLevel); ok {
		level, err := parseLevel(raw)
		if err != nil {
			return Settings{}, err
		}
		s.LogLevel = level
	}
	if raw, ok := lookup(KeyMetrics); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyMetrics, err)
		}
		s.Metrics = b
	}
	if raw, ok := lookup(KeyTracing); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyTracing, err)
		}
		s.Tracing = b
	}
	if raw, ok := lookup(KeyCheckpointPath); ok {
		s.CheckpointPath = raw
	}

	return s, s.Validate()
}

// parseEnvDuration accepts a Go duration string or a number of seconds.
func parseEnvDuration(key, raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a duration", ErrInvalid, key, raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
