package device

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/synthfleet/internal/engine"
)

// Registry holds the simulated fleet and creates devices from
// definitions. Lookups are safe from any goroutine; creation and event
// dispatch run on the simulation goroutine.
type Registry struct {
	mu      sync.RWMutex
	devices []*Device
	byID    map[string]*Device

	eng    *engine.Engine
	rng    *rand.Rand
	sink   Sink
	rec    EventRecorder
	logger Logger
}

// NewRegistry creates an empty registry. The sink, recorder and logger
// may be nil; no-op implementations are substituted.
func NewRegistry(eng *engine.Engine, rng *rand.Rand, sink Sink, rec EventRecorder, logger Logger) *Registry {
	if sink == nil {
		sink = noopSink{}
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		byID:   make(map[string]*Device),
		eng:    eng,
		rng:    rng,
		sink:   sink,
		rec:    rec,
		logger: logger,
	}
}

// Create instantiates a device at simulated time t, propagates its boot
// snapshot, and starts its behaviour ticks. A duplicate ID returns
// ErrDuplicateDevice and leaves the registry untouched.
func (r *Registry) Create(t time.Time, def Definition) (*Device, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidDefinition)
	}

	d := &Device{
		id:           def.ID,
		props:        make(Properties, len(def.Properties)+2),
		commsUp:      true,
		eng:          r.eng,
		rng:          r.rng,
		sink:         r.sink,
		rec:          r.rec,
		logger:       r.logger,
		reliability:  Constant(1.0),
		upDownPeriod: DefaultUpDownPeriod,
		batteryLife:  DefaultBatteryLife,
		usage:        defaultUsage(),
	}

	initial := def.Properties.Clone()
	if def.Battery != nil {
		d.batteryLife = sampleBatteryLife(r.rng, def.Battery.LifeMu, def.Battery.LifeSigma)
		d.autoreplace = def.Battery.Autoreplace
		if _, ok := initial["battery"]; !ok {
			initial["battery"] = 100
		}
	}
	if def.Comms != nil {
		if def.Comms.Reliability != nil {
			d.reliability = def.Comms.Reliability
		}
		if def.Comms.UpDownPeriod > 0 {
			d.upDownPeriod = def.Comms.UpDownPeriod
		}
	}
	if def.Usage != nil && len(def.Usage.Weekdays) > 0 {
		d.usage = *def.Usage
	}

	r.mu.Lock()
	if _, exists := r.byID[def.ID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, def.ID)
	}
	r.devices = append(r.devices, d)
	r.byID[def.ID] = d
	r.mu.Unlock()

	d.SetProperties(t, initial)
	if def.Comms != nil {
		d.startComms()
	}
	d.StartTicks(t)

	r.logger.Info("device created", "device_id", def.ID, "battery_life", d.batteryLife)
	return d, nil
}

// Find returns the device with the given ID.
func (r *Registry) Find(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d, nil
}

// FindByProperty returns every device whose named property equals value,
// in creation order.
func (r *Registry) FindByProperty(name string, value any) []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Device
	for _, d := range r.devices {
		if v, err := d.Property(name); err == nil && v == value {
			out = append(out, d)
		}
	}
	return out
}

// Devices returns the fleet in creation order.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
