package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SYNTHFLEET_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingScenario verifies run fails when the scenario file is
// absent.
func TestRun_MissingScenario(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  start_time: 2026-01-01T00:00:00Z
  horizon: 1h
  scenario: ` + filepath.Join(tmpDir, "missing.yaml") + `
  event_log: ""

database:
  enabled: false

mqtt:
  enabled: false

influxdb:
  enabled: false

api:
  enabled: false

logging:
  level: error
  output: discard
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SYNTHFLEET_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with missing scenario file")
	}
	if !strings.Contains(err.Error(), "scenario") {
		t.Errorf("error = %v, want scenario load failure", err)
	}
}

// TestRun_FastForward runs a complete simulation with all outputs but
// the event log disabled and checks the log captured the fleet's
// property changes.
func TestRun_FastForward(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	scenarioPath := filepath.Join(tmpDir, "fleet.yaml")
	evtPath := filepath.Join(tmpDir, "run.evt")

	scenarioContent := `
devices:
  - id: sensor-1
    properties:
      battery: 100
    battery:
      life_mu: 10m
      life_sigma: 0s
`
	if err := os.WriteFile(scenarioPath, []byte(scenarioContent), 0o600); err != nil {
		t.Fatalf("writing scenario: %v", err)
	}

	configContent := `
simulation:
  start_time: 2026-01-01T00:00:00Z
  horizon: 1h
  seed: 7
  scenario: ` + scenarioPath + `
  event_log: ` + evtPath + `

database:
  enabled: false

mqtt:
  enabled: false

influxdb:
  enabled: false

api:
  enabled: false

logging:
  level: error
  output: discard
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SYNTHFLEET_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(evtPath)
	if err != nil {
		t.Fatalf("reading event log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// Boot snapshot, the boot-time usage press, and the 99 transmitted
	// decay steps over the 10 minute life.
	if len(lines) != 101 {
		t.Errorf("event log lines = %d, want 101", len(lines))
	}
	if !strings.Contains(lines[0], "$id,sensor-1,") {
		t.Errorf("first line = %q, want boot snapshot for sensor-1", lines[0])
	}
	if !strings.Contains(string(data), "battery,1,") {
		t.Error("event log missing last transmitted battery level")
	}
	// The drain to zero is stored but never transmitted; a dead device
	// is silent.
	if strings.Contains(string(data), "battery,0,") {
		t.Error("event log contains a transmission from an exhausted battery")
	}
}

// TestGetConfigPath verifies environment override of the config path.
func TestGetConfigPath(t *testing.T) {
	t.Setenv("SYNTHFLEET_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("SYNTHFLEET_CONFIG", "/etc/synthfleet/config.yaml")
	if got := getConfigPath(); got != "/etc/synthfleet/config.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}
