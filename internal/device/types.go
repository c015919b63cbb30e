package device

import (
	"time"

	"github.com/nerrad567/synthfleet/internal/timewave"
)

// Received signal strengths anchoring the radio quality scale, in dBm.
// GoodRSSI and better leaves communication reliability untouched;
// BadRSSI and worse forces it to zero.
const (
	GoodRSSI = -50.0
	BadRSSI  = -120.0
)

const (
	// DefaultBatteryLife applies to every device without an explicit
	// battery definition.
	DefaultBatteryLife = 5 * time.Minute

	// DefaultUpDownPeriod is the mean interval between communication
	// reliability re-rolls.
	DefaultUpDownPeriod = 24 * time.Hour

	// batteryTicks is the number of decay steps across one battery life.
	batteryTicks = 100
)

// Properties is a device's property bag. Values are scalars as they
// appear on the wire: strings, ints, float64s, bools.
type Properties map[string]any

// Clone returns a shallow copy of the property bag.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Definition describes a device to create: its identity, initial
// properties and optional behaviour models. Zero-value sections fall
// back to defaults.
type Definition struct {
	ID         string
	Properties Properties
	Battery    *BatteryDefinition
	Comms      *CommsDefinition
	Usage      *UsageDefinition
}

// BatteryDefinition configures the battery drain model. The actual life
// is sampled per device around LifeMu.
type BatteryDefinition struct {
	LifeMu      time.Duration
	LifeSigma   time.Duration
	Autoreplace bool
}

// CommsDefinition configures the communication reliability model.
type CommsDefinition struct {
	Reliability  Reliability
	UpDownPeriod time.Duration
}

// UsageDefinition configures when simulated humans interact with the
// device: a weekday set plus a time-of-day window.
type UsageDefinition struct {
	Weekdays map[time.Weekday]bool
	Window   timewave.Window
}

// defaultUsage is weekday mornings, matching typical occupancy.
func defaultUsage() UsageDefinition {
	return UsageDefinition{
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Window: timewave.Window{Start: 6 * time.Hour, End: 9 * time.Hour},
	}
}

// Sink receives property change notifications for devices whose
// communication link is up. Implementations must not block the caller
// for long: they run on the simulation dispatch goroutine.
type Sink interface {
	Notify(deviceID string, t time.Time, changed map[string]any)
}

// EventRecorder appends entries to the device event log.
type EventRecorder interface {
	// Entry records a property change set at simulated time t.
	Entry(t time.Time, props map[string]any)
	// Line records a free-text annotation at simulated time t.
	Line(t time.Time, text string)
}

// Logger is the minimal logging interface this package needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// noopSink discards notifications.
type noopSink struct{}

func (noopSink) Notify(string, time.Time, map[string]any) {}

// noopRecorder discards event log output.
type noopRecorder struct{}

func (noopRecorder) Entry(time.Time, map[string]any) {}
func (noopRecorder) Line(time.Time, string)          {}
