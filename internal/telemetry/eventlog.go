package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// timestampLayout prefixes every event log line.
const timestampLayout = "2006-01-02 15:04:05"

// EventLog is the append-only .evt file recording everything each
// device transmitted, in simulated-time order. One line per change set:
// a timestamp followed by comma-separated key,value pairs in key order,
// so runs with the same seed diff cleanly.
type EventLog struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenEventLog opens (or creates) the event log at path, appending to
// any existing content.
func OpenEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &EventLog{file: file, path: path}, nil
}

// Path returns the log file location.
func (l *EventLog) Path() string { return l.path }

// Entry appends a property change set at simulated time t.
func (l *EventLog) Entry(t time.Time, props map[string]any) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(t.UTC().Format(timestampLayout))
	b.WriteByte(' ')
	for _, k := range keys {
		fmt.Fprintf(&b, "%s,%v,", k, props[k])
	}
	b.WriteByte('\n')

	l.write(b.String())
}

// Line appends a free-text annotation at simulated time t.
func (l *EventLog) Line(t time.Time, text string) {
	l.write(t.UTC().Format(timestampLayout) + " " + text + "\n")
}

func (l *EventLog) write(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	// Write errors on a log file are not worth failing the run over.
	l.file.WriteString(s) //nolint:errcheck
}

// Close closes the underlying file. Further writes are dropped.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
