package device

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Inbound event names the fleet understands.
const (
	EventReplaceBattery  = "replaceBattery"
	EventUpgradeFirmware = "upgradeFirmware"
	EventFactoryReset    = "factoryReset"
)

// InboundEvent is a command sent to a device from outside the
// simulation, arriving over MQTT or the HTTP API. Arg is optional and
// may be any JSON value.
type InboundEvent struct {
	EventID  string `json:"eventId,omitempty"`
	DeviceID string `json:"deviceId"`
	Name     string `json:"eventName"`
	Arg      any    `json:"arg,omitempty"`
}

// Stamp assigns a fresh event ID when the sender did not supply one.
func (ev *InboundEvent) Stamp() {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
}

// Dispatch routes an inbound event to its target device at simulated
// time now. An unknown device ID returns ErrDeviceNotFound; callers log
// and drop, the fleet is unaffected.
func (r *Registry) Dispatch(now time.Time, ev InboundEvent) error {
	d, err := r.Find(ev.DeviceID)
	if err != nil {
		return err
	}
	d.handleEvent(now, ev)
	return nil
}

// handleEvent applies one inbound event.
//
// Receipt is always recorded. A battery replacement works even on a
// dead or unreachable device, since it models physical intervention.
// Every other command needs a live battery and an up link to reach the
// device, and is silently dropped otherwise.
func (d *Device) handleEvent(now time.Time, ev InboundEvent) {
	d.rec.Line(now, fmt.Sprintf("received event %s %v", ev.Name, ev.Arg))
	d.logger.Info("inbound event",
		"device_id", d.id, "event", ev.Name, "arg", ev.Arg, "event_id", ev.EventID)

	if ev.Name == EventReplaceBattery {
		d.replaceBattery(now)
		return
	}

	if level, ok := d.batteryLevel(); ok && level <= 0 {
		d.logger.Debug("event dropped, battery exhausted", "device_id", d.id, "event", ev.Name)
		return
	}
	if !d.CommsUp() {
		d.logger.Debug("event dropped, comms down", "device_id", d.id, "event", ev.Name)
		return
	}

	switch ev.Name {
	case EventUpgradeFirmware:
		d.SetProperty(now, "firmware", ev.Arg)
	case EventFactoryReset:
		fw, err := d.Property("factoryFirmware")
		if err != nil {
			d.logger.Warn("factory reset without factory firmware", "device_id", d.id)
			return
		}
		d.SetProperty(now, "firmware", fw)
	default:
		d.logger.Debug("unknown event ignored", "device_id", d.id, "event", ev.Name)
	}
}
