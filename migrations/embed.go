// Package migrations embeds the telemetry archive schema into the
// binary, so deployments need no SQL files on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/synthfleet/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
