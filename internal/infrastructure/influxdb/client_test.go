package influxdb

import (
	"errors"
	"testing"

	"github.com/nerrad567/synthfleet/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestIsConnected_ZeroValue(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Error("zero-value client reports connected")
	}
	// Flush and Close must be safe on a disconnected client.
	c.Flush()
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
