package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/synthfleet/internal/infrastructure/database"
)

// ArchiveSink persists change sets to the local SQLite archive, one row
// per property. The archive is the queryable record of a run; the .evt
// log is the human-readable one.
type ArchiveSink struct {
	db     *database.DB
	logger Logger
}

// NewArchiveSink wraps the telemetry archive as a sink.
func NewArchiveSink(db *database.DB, logger Logger) *ArchiveSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ArchiveSink{db: db, logger: logger}
}

// Notify implements Sink. All properties of a change set are written in
// one transaction; a failed write is logged and dropped.
func (s *ArchiveSink) Notify(deviceID string, t time.Time, changed map[string]any) {
	ts := float64(t.UnixNano()) / float64(time.Second)
	if v, ok := changed["$ts"].(float64); ok {
		ts = v
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Warn("archiving telemetry", "device_id", deviceID, "error", err)
		return
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for key, value := range changed {
		if key == "$id" || key == "$ts" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO telemetry (device_id, ts, property, value) VALUES (?, ?, ?, ?)",
			deviceID, ts, key, fmt.Sprintf("%v", value),
		); err != nil {
			s.logger.Warn("archiving telemetry", "device_id", deviceID, "property", key, "error", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.logger.Warn("archiving telemetry", "device_id", deviceID, "error", err)
	}
}

// Record is one archived property reading.
type Record struct {
	DeviceID string  `json:"device_id"`
	TS       float64 `json:"ts"`
	Property string  `json:"property"`
	Value    string  `json:"value"`
}

// History returns the most recent archived readings for a device,
// newest first.
func (s *ArchiveSink) History(ctx context.Context, deviceID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT device_id, ts, property, value FROM telemetry WHERE device_id = ? ORDER BY ts DESC, id DESC LIMIT ?",
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying telemetry history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.DeviceID, &r.TS, &r.Property, &r.Value); err != nil {
			return nil, fmt.Errorf("scanning telemetry row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating telemetry rows: %w", err)
	}
	return records, nil
}
