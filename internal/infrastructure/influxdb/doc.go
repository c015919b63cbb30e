// Package influxdb wraps the InfluxDB v2 client for telemetry storage.
// Writes are non-blocking and batched; async write errors surface
// through an error callback.
package influxdb
