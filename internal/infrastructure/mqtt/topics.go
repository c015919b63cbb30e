package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the fleet's MQTT traffic.
//
// Telemetry flows out on synthfleet/telemetry/{device_id}; inbound
// device events arrive on synthfleet/event/{device_id}.
const (
	// TopicPrefix is the base for all fleet topics.
	TopicPrefix = "synthfleet"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "synthfleet/system"
)

// Topics provides builders for fleet MQTT topics. Using these helpers
// keeps topic naming consistent across publishers and subscribers.
type Topics struct{}

// Telemetry returns the topic a device's property changes are published
// on.
//
// Example: synthfleet/telemetry/sensor-hallway-1
func (Topics) Telemetry(deviceID string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefix, deviceID)
}

// Event returns the topic inbound events for a device arrive on.
//
// Example: synthfleet/event/sensor-hallway-1
func (Topics) Event(deviceID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, deviceID)
}

// AllEvents returns a pattern matching inbound events for any device.
//
// Pattern: synthfleet/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefix)
}

// AllTelemetry returns a pattern matching telemetry from any device.
//
// Pattern: synthfleet/telemetry/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+", TopicPrefix)
}

// SystemStatus returns the simulator's online/offline status topic.
//
// Example: synthfleet/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// EventDeviceID extracts the device ID from an inbound event topic.
// Returns empty when the topic does not match the event scheme.
func EventDeviceID(topic string) string {
	id, ok := strings.CutPrefix(topic, TopicPrefix+"/event/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
