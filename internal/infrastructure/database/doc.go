// Package database manages the SQLite connection used for the local
// telemetry archive: connection setup with WAL mode and busy timeout,
// embedded schema migrations, and health checks.
package database
