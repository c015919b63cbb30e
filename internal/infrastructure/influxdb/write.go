package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry records one numeric property reading for a device at
// simulated time ts. The write is batched and sent asynchronously.
//
// Each property becomes a row in the telemetry measurement, tagged with
// the device ID and property name so dashboards can group either way.
func (c *Client) WriteTelemetry(deviceID, property string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{
			"device_id": deviceID,
			"property":  property,
		},
		map[string]interface{}{
			"value": value,
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}

// WriteFleetStats records fleet-level gauges (device count, pending
// events) for monitoring the simulator itself.
func (c *Client) WriteFleetStats(deviceCount, pendingEvents int, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"fleet",
		map[string]string{},
		map[string]interface{}{
			"devices":        deviceCount,
			"pending_events": pendingEvents,
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}
