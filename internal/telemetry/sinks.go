package telemetry

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/synthfleet/internal/infrastructure/influxdb"
	"github.com/nerrad567/synthfleet/internal/infrastructure/mqtt"
)

// Sink receives property change sets from transmitting devices.
type Sink interface {
	Notify(deviceID string, t time.Time, changed map[string]any)
}

// Logger is the minimal logging interface this package needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MultiSink fans a change set out to several sinks in order.
type MultiSink []Sink

// Notify implements Sink.
func (m MultiSink) Notify(deviceID string, t time.Time, changed map[string]any) {
	for _, s := range m {
		s.Notify(deviceID, t, changed)
	}
}

// MQTTSink publishes change sets as JSON on the device's telemetry
// topic.
type MQTTSink struct {
	client *mqtt.Client
	logger Logger
}

// NewMQTTSink wraps an MQTT client as a telemetry sink.
func NewMQTTSink(client *mqtt.Client, logger Logger) *MQTTSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTSink{client: client, logger: logger}
}

// Notify implements Sink.
func (s *MQTTSink) Notify(deviceID string, t time.Time, changed map[string]any) {
	payload, err := json.Marshal(changed)
	if err != nil {
		s.logger.Error("marshalling telemetry", "device_id", deviceID, "error", err)
		return
	}
	if err := s.client.PublishTelemetry(deviceID, payload); err != nil {
		s.logger.Warn("publishing telemetry", "device_id", deviceID, "error", err)
	}
}

// InfluxSink records numeric readings in InfluxDB. Non-numeric values
// and the $id/$ts stamps are skipped; booleans are written as 0/1.
type InfluxSink struct {
	client *influxdb.Client
}

// NewInfluxSink wraps an InfluxDB client as a telemetry sink. Write
// errors surface through the client's async error callback.
func NewInfluxSink(client *influxdb.Client) *InfluxSink {
	return &InfluxSink{client: client}
}

// Notify implements Sink.
func (s *InfluxSink) Notify(deviceID string, t time.Time, changed map[string]any) {
	for key, value := range changed {
		if key == "$id" || key == "$ts" {
			continue
		}
		f, ok := numeric(value)
		if !ok {
			continue
		}
		s.client.WriteTelemetry(deviceID, key, f, t)
	}
}

// TelemetryChannel is the WebSocket channel property changes stream on.
const TelemetryChannel = "device.telemetry"

// Broadcaster pushes an event to WebSocket clients subscribed to a
// channel. Implemented by the API server's hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink streams change sets to WebSocket clients.
type HubSink struct {
	hub Broadcaster
}

// NewHubSink wraps a WebSocket hub as a telemetry sink.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

// Notify implements Sink.
func (s *HubSink) Notify(deviceID string, t time.Time, changed map[string]any) {
	s.hub.Broadcast(TelemetryChannel, changed)
}

// numeric widens numeric and boolean values to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
