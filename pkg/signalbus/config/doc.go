/*
Package config loads signal bus settings from YAML, JSON, and the environment.

# Basic Usage

	settings, err := config.FromFile("signalbus.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	settings, err = settings.ApplyEnv("SIGNALBUS")
	if err != nil {
	    log.Fatal(err)
	}

	bus := signalbus.NewBus(signalbus.OptionsFromSettings(settings)...)

A file looks like:

	poll_interval: 10ms
	lock_timeout: 5s
	log_level: debug
	metrics: true
	tracing: false
	checkpoint_path: ./counters.db

# Type Coercion

Durations accept:
  - string: parsed with time.ParseDuration ("250ms", "1m")
  - int/float64: interpreted as seconds

Keys that are missing keep their default. Keys whose value has the wrong
type are reported as errors rather than silently ignored.

# Environment

ApplyEnv reads PREFIX_POLL_INTERVAL, PREFIX_LOCK_TIMEOUT, PREFIX_LOG_LEVEL,
PREFIX_METRICS, PREFIX_TRACING and PREFIX_CHECKPOINT_PATH. Set variables win
over file values.
*/
package config
