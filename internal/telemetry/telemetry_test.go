package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/synthfleet/internal/infrastructure/database"
)

var testTime = time.Date(2026, 1, 5, 7, 30, 0, 0, time.UTC)

func TestEventLog_EntrySortedPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.evt")
	log, err := OpenEventLog(path)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}

	log.Entry(testTime, map[string]any{
		"battery": 98,
		"$id":     "dev-1",
		"$ts":     1767598200.0,
	})
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := strings.TrimRight(string(data), "\n")
	want := "2026-01-05 07:30:00 $id,dev-1,$ts,1.7675982e+09,battery,98,"
	if got != want {
		t.Errorf("entry = %q, want %q", got, want)
	}
}

func TestEventLog_Line(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.evt")
	log, err := OpenEventLog(path)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}

	log.Line(testTime, "received event replaceBattery")
	log.Close()

	data, _ := os.ReadFile(path)
	want := "2026-01-05 07:30:00 received event replaceBattery\n"
	if string(data) != want {
		t.Errorf("line = %q, want %q", string(data), want)
	}
}

func TestEventLog_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.evt")
	log, err := OpenEventLog(path)
	if err != nil {
		t.Fatalf("OpenEventLog() error = %v", err)
	}
	log.Close()

	// Must not panic; the write is dropped.
	log.Line(testTime, "after close")
}

type recordingSink struct {
	calls []string
}

func (s *recordingSink) Notify(deviceID string, _ time.Time, _ map[string]any) {
	s.calls = append(s.calls, deviceID)
}

func TestMultiSink_FansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	multi := MultiSink{a, b}

	multi.Notify("dev-1", testTime, map[string]any{"battery": 50})

	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Errorf("calls = %d,%d, want 1,1", len(a.calls), len(b.calls))
	}
}

type captureBroadcaster struct {
	channels []string
	payloads []any
}

func (b *captureBroadcaster) Broadcast(channel string, payload any) {
	b.channels = append(b.channels, channel)
	b.payloads = append(b.payloads, payload)
}

func TestHubSink_BroadcastsOnTelemetryChannel(t *testing.T) {
	hub := &captureBroadcaster{}
	sink := NewHubSink(hub)

	changed := map[string]any{"$id": "dev-1", "battery": 50}
	sink.Notify("dev-1", testTime, changed)

	if len(hub.payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(hub.payloads))
	}
	if hub.channels[0] != TelemetryChannel {
		t.Errorf("channel = %q, want %q", hub.channels[0], TelemetryChannel)
	}
	got, ok := hub.payloads[0].(map[string]any)
	if !ok || got["battery"] != 50 {
		t.Errorf("payload = %v", hub.payloads[0])
	}
}

func TestArchiveSink_RoundTrip(t *testing.T) {
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE telemetry (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			ts REAL NOT NULL,
			property TEXT NOT NULL,
			value TEXT NOT NULL,
			recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`); err != nil {
		t.Fatalf("creating table: %v", err)
	}

	sink := NewArchiveSink(db, nil)
	sink.Notify("dev-1", testTime, map[string]any{
		"$id":     "dev-1",
		"$ts":     1767598200.0,
		"battery": 42,
		"light":   0.5,
	})

	records, err := sink.History(ctx, "dev-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 ($id/$ts skipped)", len(records))
	}
	for _, r := range records {
		if r.DeviceID != "dev-1" {
			t.Errorf("device_id = %q", r.DeviceID)
		}
		if r.TS != 1767598200.0 {
			t.Errorf("ts = %v, want stamped $ts", r.TS)
		}
	}

	if empty, err := sink.History(ctx, "ghost", 10); err != nil || len(empty) != 0 {
		t.Errorf("History(ghost) = %v, %v", empty, err)
	}
}
