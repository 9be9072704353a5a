package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Keys recognized in config files.
const (
	KeyPollInterval   = "poll_interval"
	KeyLockTimeout    = "lock_timeout"
	KeyLogLevel       = "log_level"
	KeyMetrics        = "metrics"
	KeyTracing        = "tracing"
	KeyCheckpointPath = "checkpoint_path"
)

// Defaults.
const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultLockTimeout  = 5 * time.Second
)

// ErrInvalid indicates a setting with an unusable value.
var ErrInvalid = errors.New("invalid setting")

// Settings configures a signal bus and its surroundings.
type Settings struct {
	// PollInterval is the pause between processing cycles. Must be > 0.
	PollInterval time.Duration

	// LockTimeout bounds how long connect and disconnect wait for the
	// bus's critical section.
	LockTimeout time.Duration

	// LogLevel is the minimum level of the logger built by Logger.
	LogLevel slog.Level

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry tracing.
	Tracing bool

	// CheckpointPath is the SQLite file for counter checkpoints.
	// Empty disables checkpoints.
	CheckpointPath string
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		PollInterval: DefaultPollInterval,
		LockTimeout:  DefaultLockTimeout,
		LogLevel:     slog.LevelInfo,
	}
}

// FromMap builds settings from decoded YAML or JSON, starting from Default.
func FromMap(data map[string]any) (Settings, error) {
	s := Default()
	v := values{data: data}

	var err error
	if s.PollInterval, err = v.getDuration(KeyPollInterval, s.PollInterval); err != nil {
		return Settings{}, err
	}
	if s.LockTimeout, err = v.getDuration(KeyLockTimeout, s.LockTimeout); err != nil {
		return Settings{}, err
	}
	level, err := v.getString(KeyLogLevel, "")
	if err != nil {
		return Settings{}, err
	}
	if level != "" {
		if s.LogLevel, err = parseLevel(level); err != nil {
			return Settings{}, err
		}
	}
	if s.Metrics, err = v.getBool(KeyMetrics, s.Metrics); err != nil {
		return Settings{}, err
	}
	if s.Tracing, err = v.getBool(KeyTracing, s.Tracing); err != nil {
		return Settings{}, err
	}
	if s.CheckpointPath, err = v.getString(KeyCheckpointPath, s.CheckpointPath); err != nil {
		return Settings{}, err
	}

	return s, s.Validate()
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, KeyPollInterval, s.PollInterval)
	}
	if s.LockTimeout < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalid, KeyLockTimeout, s.LockTimeout)
	}
	return nil
}

// Logger returns a JSON logger writing to w at the configured level.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.LogLevel}))
}

func parseLevel(text string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyLogLevel, err)
	}
	return level, nil
}

// values extracts typed entries from a decoded document.
type values struct {
	data map[string]any
}

func (v values) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal, nil
	}
	switch val := raw.(type) {
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		return d, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case time.Duration:
		return val, nil
	}
	return 0, fmt.Errorf("%w: %s: unsupported type %T", ErrInvalid, key, raw)
}

func (v values) getBool(key string, defaultVal bool) (bool, error) {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal, nil
	}
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("%w: %s: expected bool, got %T", ErrInvalid, key, raw)
}

func (v values) getString(key, defaultVal string) (string, error) {
	raw, ok := v.data[key]
	if !ok {
		return defaultVal, nil
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %s: expected string, got %T", ErrInvalid, key, raw)
}
