package device

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/synthfleet/internal/engine"
	"github.com/nerrad567/synthfleet/internal/solar"
	"github.com/nerrad567/synthfleet/internal/timewave"
)

// Device is one simulated unit of the fleet. All behaviour runs as
// engine callbacks; the mutex only guards property snapshots read from
// other goroutines.
type Device struct {
	id string

	mu      sync.RWMutex
	props   Properties
	commsUp bool

	eng    *engine.Engine
	rng    *rand.Rand
	sink   Sink
	rec    EventRecorder
	logger Logger

	reliability  Reliability
	upDownPeriod time.Duration

	batteryLife time.Duration
	autoreplace bool

	usage UsageDefinition
}

// ID returns the device's unique identifier.
func (d *Device) ID() string { return d.id }

// Snapshot returns a copy of the device's current property bag.
func (d *Device) Snapshot() Properties {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.props.Clone()
}

// Property returns the named property value.
func (d *Device) Property(name string) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.props[name]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return v, nil
}

// PropertyExists reports whether the device exposes the named property.
func (d *Device) PropertyExists(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.props[name]
	return ok
}

// CommsUp reports whether the communication link is currently up,
// before accounting for battery state.
func (d *Device) CommsUp() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.commsUp
}

// CommsOK reports whether the device can currently transmit: the link
// is up and the battery, if it has one, is not exhausted.
func (d *Device) CommsOK() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.commsOKLocked()
}

func (d *Device) commsOKLocked() bool {
	if !d.commsUp {
		return false
	}
	if level, ok := d.batteryLevelLocked(); ok && level <= 0 {
		return false
	}
	return true
}

// BatteryLife returns the sampled battery life, zero for mains devices.
func (d *Device) BatteryLife() time.Duration { return d.batteryLife }

// SetProperty updates a single property at simulated time t.
func (d *Device) SetProperty(t time.Time, name string, value any) {
	d.SetProperties(t, Properties{name: value})
}

// SetProperties applies a property change set at simulated time t. The
// device's identity and a float64 Unix-seconds timestamp are stamped
// onto the change set, the bag is updated, and the change set is
// propagated to the telemetry sink and event log when the device can
// transmit.
func (d *Device) SetProperties(t time.Time, changes Properties) {
	changed := changes.Clone()
	changed["$id"] = d.id
	changed["$ts"] = float64(t.UnixNano()) / float64(time.Second)

	d.mu.Lock()
	for k, v := range changed {
		d.props[k] = v
	}
	transmit := d.commsOKLocked()
	d.mu.Unlock()

	if !transmit {
		return
	}
	d.rec.Entry(t, changed)
	d.sink.Notify(d.id, t, changed)
}

// batteryLevel returns the current battery percentage and whether the
// device exposes a battery at all.
func (d *Device) batteryLevel() (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.batteryLevelLocked()
}

func (d *Device) batteryLevelLocked() (int, bool) {
	v, ok := d.props["battery"]
	if !ok {
		return 0, false
	}
	switch level := v.(type) {
	case int:
		return level, true
	case int64:
		return int(level), true
	case float64:
		return int(level), true
	default:
		return 0, false
	}
}

// powered reports whether the device has energy to act: mains devices
// always, battery devices while the level is above zero.
func (d *Device) powered() bool {
	level, ok := d.batteryLevel()
	return !ok || level > 0
}

// key namespaces an engine cancellation key to this device.
func (d *Device) key(kind string) string { return d.id + "/" + kind }

// StartTicks registers the device's periodic behaviour: battery decay
// when a battery is present, the hourly ambient tick, and an immediate
// usage interaction that then follows the usage schedule. Any ticks
// already pending under the same keys are cancelled first, so a battery
// replacement restarts the cycle cleanly.
func (d *Device) StartTicks(now time.Time) {
	d.eng.Cancel(d.key("battery"))
	d.eng.Cancel(d.key("hourly"))
	d.eng.Cancel(d.key("usage"))

	if _, ok := d.batteryLevel(); ok {
		d.eng.RegisterIn(d.batteryInterval(), d.tickBatteryDecay, d.key("battery"))
	}
	d.eng.RegisterIn(time.Hour, d.tickHourly, d.key("hourly"))
	d.eng.RegisterIn(0, d.tickProductUsage, d.key("usage"))
}

// startComms registers the reliability re-roll cycle.
func (d *Device) startComms() {
	d.eng.Cancel(d.key("comms"))
	d.eng.RegisterIn(0, d.tickComms, d.key("comms"))
}

// batteryInterval is the decay step: one percent of charge per step.
func (d *Device) batteryInterval() time.Duration {
	return d.batteryLife / batteryTicks
}

// tickBatteryDecay drains one percent of charge. At exhaustion the
// device falls silent; with autoreplace enabled the battery is swapped
// on the spot and the cycle restarts.
func (d *Device) tickBatteryDecay(now time.Time) {
	level, ok := d.batteryLevel()
	if !ok || level <= 0 {
		return
	}
	level--
	d.SetProperty(now, "battery", level)

	if level <= 0 {
		d.logger.Debug("battery exhausted", "device_id", d.id)
		if d.autoreplace {
			d.replaceBattery(now)
		}
		return
	}
	d.eng.RegisterIn(d.batteryInterval(), d.tickBatteryDecay, d.key("battery"))
}

// replaceBattery fits a fresh battery and restarts the tick cycle.
func (d *Device) replaceBattery(now time.Time) {
	d.SetProperty(now, "battery", 100)
	d.logger.Info("battery replaced", "device_id", d.id)
	d.StartTicks(now)
}

// tickComms re-rolls the communication link state against the
// reliability model and schedules the next re-roll.
func (d *Device) tickComms(now time.Time) {
	rel := now.Sub(d.eng.StartTime())
	prob := d.reliability.UpProbability(rel)

	// Signal strength modulates curve-based reliability only; a constant
	// reliability is taken as already accounting for the radio path.
	if _, curved := d.reliability.(Curve); curved {
		if v, err := d.Property("rssi"); err == nil {
			if rssi, ok := toFloat(v); ok {
				prob *= RadioFactor(rssi)
			}
		}
	}

	up := d.rng.Float64() < prob

	d.mu.Lock()
	changed := up != d.commsUp
	d.commsUp = up
	d.mu.Unlock()

	if changed {
		d.logger.Debug("comms state changed", "device_id", d.id, "up", up, "probability", prob)
	}
	d.eng.RegisterIn(sampleToggleInterval(d.rng, d.upDownPeriod), d.tickComms, d.key("comms"))
}

// tickHourly updates ambient readings once per simulated hour. Devices
// with a geographic position derive a light level from the sun's
// elevation. An exhausted battery stops the cycle; a battery
// replacement restarts it.
func (d *Device) tickHourly(now time.Time) {
	if !d.powered() {
		return
	}

	lon, lonErr := d.Property("longitude")
	lat, latErr := d.Property("latitude")
	if lonErr == nil && latErr == nil {
		flon, okLon := toFloat(lon)
		flat, okLat := toFloat(lat)
		if okLon && okLat {
			d.SetProperty(now, "light", solar.SunBright(now, flon, flat))
		}
	}

	d.eng.RegisterIn(time.Hour, d.tickHourly, d.key("hourly"))
}

// tickProductUsage simulates a human pressing the device's button, then
// schedules the next interaction inside the usage schedule.
func (d *Device) tickProductUsage(now time.Time) {
	if !d.powered() {
		return
	}

	d.SetProperty(now, "buttonPress", 1)
	d.eng.RegisterAt(timewave.NextUsageTime(d.rng, now, d.usage.Weekdays, d.usage.Window),
		d.tickProductUsage, d.key("usage"))
}

// toFloat widens numeric property values to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
