// Package mqtt wraps paho.mqtt.golang for the fleet's broker traffic:
// telemetry out, inbound device events in, and an online/offline status
// with a Last Will for crash detection.
//
// Connection management, auto-reconnect and re-subscription are handled
// internally; callers publish and subscribe through the Client wrapper.
package mqtt
