// Package config loads and validates Synthfleet configuration.
//
// Configuration comes from a single YAML file, with a small set of
// environment variable overrides for values that differ per deployment
// (broker host, tokens, secrets). Defaults are applied before the file
// is parsed so a minimal config file is enough to run a simulation.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//
// # Sections
//
//   - simulation: sim clock epoch, horizon, RNG seed, scenario path
//   - database:   SQLite telemetry archive
//   - mqtt:       broker for telemetry publishing and inbound events
//   - influxdb:   time-series telemetry sink
//   - api:        HTTP event-injection and inspection API
//   - logging:    level / format / output
package config
