package signalbus

import (
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/randalmurphal/signalbus/pkg/signalbus/config"
	"github.com/randalmurphal/signalbus/pkg/signalbus/observability"
)

// busConfig holds the configuration of a Bus.
type busConfig struct {
	pollInterval time.Duration
	lockTimeout  time.Duration
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	clock        clock.Clock
	id           string
}

func defaultBusConfig() busConfig {
	return busConfig{
		pollInterval: config.DefaultPollInterval,
		lockTimeout:  config.DefaultLockTimeout,
		logger:       slog.Default(),
		metrics:      observability.NoopMetrics{},
		spans:        observability.NoopSpanManager{},
		clock:        clock.New(),
	}
}

// Option configures a Bus.
type Option func(*busConfig)

// WithPollInterval sets the pause between processing cycles of Start.
// Default: 10ms. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(c *busConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLockTimeout bounds how long Connect, Disconnect and pruning wait
// for the bus's critical section. Default: 5s.
//
// A zero timeout makes a single non-blocking attempt. Negative values are
// ignored.
func WithLockTimeout(d time.Duration) Option {
	return func(c *busConfig) {
		if d >= 0 {
			c.lockTimeout = d
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	bus := signalbus.NewBus(signalbus.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no metrics.
//
// Example:
//
//	bus := signalbus.NewBus(signalbus.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *busConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing sets the span manager. Default: no tracing.
func WithTracing(s observability.SpanManager) Option {
	return func(c *busConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithClock sets the clock driving the polling loop. Tests pass a
// clock.NewMock() to step the loop by hand.
func WithClock(clk clock.Clock) Option {
	return func(c *busConfig) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithID sets the bus ID used in logs and metrics. Default: a random UUID.
func WithID(id string) Option {
	return func(c *busConfig) {
		c.id = id
	}
}

// OptionsFromSettings maps loaded settings to bus options. The logger
// writes JSON to stderr at the configured level.
func OptionsFromSettings(s config.Settings) []Option {
	opts := []Option{
		WithPollInterval(s.PollInterval),
		WithLockTimeout(s.LockTimeout),
		WithLogger(s.Logger(os.Stderr)),
	}
	if s.Metrics {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		opts = append(opts, WithTracing(observability.NewSpanManager()))
	}
	return opts
}
