package mqtt

import (
	"strings"
	"testing"

	"github.com/nerrad567/synthfleet/internal/infrastructure/config"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"telemetry", topics.Telemetry("dev-1"), "synthfleet/telemetry/dev-1"},
		{"event", topics.Event("dev-1"), "synthfleet/event/dev-1"},
		{"all events", topics.AllEvents(), "synthfleet/event/+"},
		{"all telemetry", topics.AllTelemetry(), "synthfleet/telemetry/+"},
		{"system status", topics.SystemStatus(), "synthfleet/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestEventDeviceID(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"synthfleet/event/dev-1", "dev-1"},
		{"synthfleet/event/", ""},
		{"synthfleet/event/dev-1/extra", ""},
		{"synthfleet/telemetry/dev-1", ""},
		{"other/event/dev-1", ""},
	}
	for _, tt := range tests {
		if got := EventDeviceID(tt.topic); got != tt.want {
			t.Errorf("EventDeviceID(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "broker.local",
			Port:     8883,
			TLS:      true,
			ClientID: "synthfleet-test",
		},
		Auth: config.MQTTAuthConfig{Username: "user", Password: "pass"},
		QoS:  1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("servers = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "ssl://broker.local:8883" {
		t.Errorf("broker URL = %q, want ssl://broker.local:8883", got)
	}
	if opts.ClientID != "synthfleet-test" {
		t.Errorf("client ID = %q", opts.ClientID)
	}
	if opts.Username != "user" {
		t.Errorf("username = %q", opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLS config not set for TLS broker")
	}
	if !opts.AutoReconnect {
		t.Error("auto-reconnect not enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "localhost", Port: 1883, ClientID: "synthfleet"},
	}
	opts := buildClientOptions(cfg)
	configureLWT(opts, "synthfleet")

	if opts.WillTopic != "synthfleet/system/status" {
		t.Errorf("will topic = %q, want synthfleet/system/status", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("will not retained")
	}
	payload := string(opts.WillPayload)
	if !strings.Contains(payload, `"status":"offline"`) {
		t.Errorf("will payload missing offline status: %s", payload)
	}
	if !strings.Contains(payload, `"reason":"unexpected_disconnect"`) {
		t.Errorf("will payload missing reason: %s", payload)
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 0, false); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("t", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("bad qos error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 0, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("t", 0, nil); err == nil {
		t.Error("nil handler accepted")
	}
}
