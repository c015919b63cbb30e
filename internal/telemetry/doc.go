// Package telemetry delivers device property changes to the outside
// world: an append-only event log file, MQTT, InfluxDB, the SQLite
// archive, and WebSocket clients.
//
// Sinks run on the simulation dispatch goroutine, so they must be
// quick and must never fail the simulation: delivery errors are logged
// and dropped.
package telemetry
