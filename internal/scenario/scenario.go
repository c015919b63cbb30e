package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/synthfleet/internal/device"
	"github.com/nerrad567/synthfleet/internal/timewave"
)

// ErrInvalidScenario is returned when a scenario file fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// fileSchema is the top level of a scenario YAML file.
type fileSchema struct {
	Devices []deviceSchema `yaml:"devices"`
}

// deviceSchema is one fleet entry. Durations are strings in Go duration
// syntax ("720h", "90s") so scenario files stay readable.
type deviceSchema struct {
	ID         string         `yaml:"id"`
	Count      int            `yaml:"count"`
	Properties map[string]any `yaml:"properties"`
	Battery    *batterySchema `yaml:"battery"`
	Comms      *commsSchema   `yaml:"comms"`
	Usage      *usageSchema   `yaml:"usage"`
}

type batterySchema struct {
	LifeMu      string `yaml:"life_mu"`
	LifeSigma   string `yaml:"life_sigma"`
	Autoreplace bool   `yaml:"autoreplace"`
}

type commsSchema struct {
	Reliability  *float64      `yaml:"reliability"`
	Curve        []pointSchema `yaml:"curve"`
	UpDownPeriod string        `yaml:"up_down_period"`
}

type pointSchema struct {
	At          string  `yaml:"at"`
	Probability float64 `yaml:"probability"`
}

type usageSchema struct {
	Weekdays []string `yaml:"weekdays"`
	Window   string   `yaml:"window"`
}

// Load reads a scenario file and expands it into device definitions,
// in file order. Entries with count > 1 become count devices with a
// numeric suffix; entries without an ID get a generated UUID.
func Load(path string) ([]device.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse expands raw scenario YAML into device definitions.
func Parse(data []byte) ([]device.Definition, error) {
	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if len(file.Devices) == 0 {
		return nil, fmt.Errorf("%w: no devices defined", ErrInvalidScenario)
	}

	var defs []device.Definition
	for i, entry := range file.Devices {
		expanded, err := expand(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: device %d: %w", ErrInvalidScenario, i, err)
		}
		defs = append(defs, expanded...)
	}
	return defs, nil
}

// expand converts one fleet entry into its device definitions.
func expand(entry deviceSchema) ([]device.Definition, error) {
	battery, err := parseBattery(entry.Battery)
	if err != nil {
		return nil, err
	}
	comms, err := parseComms(entry.Comms)
	if err != nil {
		return nil, err
	}
	usage, err := parseUsage(entry.Usage)
	if err != nil {
		return nil, err
	}

	count := entry.Count
	if count <= 0 {
		count = 1
	}

	defs := make([]device.Definition, 0, count)
	for i := 0; i < count; i++ {
		id := entry.ID
		switch {
		case id == "":
			id = uuid.New().String()
		case count > 1:
			id = fmt.Sprintf("%s-%d", entry.ID, i+1)
		}

		props := make(device.Properties, len(entry.Properties))
		for k, v := range entry.Properties {
			props[k] = v
		}

		defs = append(defs, device.Definition{
			ID:         id,
			Properties: props,
			Battery:    battery,
			Comms:      comms,
			Usage:      usage,
		})
	}
	return defs, nil
}

func parseBattery(s *batterySchema) (*device.BatteryDefinition, error) {
	if s == nil {
		return nil, nil
	}
	mu, err := parseDuration(s.LifeMu)
	if err != nil {
		return nil, fmt.Errorf("battery life_mu: %w", err)
	}
	if mu <= 0 {
		return nil, fmt.Errorf("battery life_mu must be positive")
	}
	sigma, err := parseDuration(s.LifeSigma)
	if err != nil {
		return nil, fmt.Errorf("battery life_sigma: %w", err)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("battery life_sigma must not be negative")
	}
	return &device.BatteryDefinition{
		LifeMu:      mu,
		LifeSigma:   sigma,
		Autoreplace: s.Autoreplace,
	}, nil
}

func parseComms(s *commsSchema) (*device.CommsDefinition, error) {
	if s == nil {
		return nil, nil
	}
	if s.Reliability != nil && len(s.Curve) > 0 {
		return nil, fmt.Errorf("comms: reliability and curve are mutually exclusive")
	}

	def := &device.CommsDefinition{}
	switch {
	case s.Reliability != nil:
		p := *s.Reliability
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("comms reliability %v outside [0,1]", p)
		}
		def.Reliability = device.Constant(p)
	case len(s.Curve) > 0:
		curve, err := parseCurve(s.Curve)
		if err != nil {
			return nil, err
		}
		def.Reliability = curve
	default:
		return nil, fmt.Errorf("comms: reliability or curve required")
	}

	if s.UpDownPeriod != "" {
		period, err := time.ParseDuration(s.UpDownPeriod)
		if err != nil {
			return nil, fmt.Errorf("comms up_down_period: %w", err)
		}
		if period <= 0 {
			return nil, fmt.Errorf("comms up_down_period must be positive")
		}
		def.UpDownPeriod = period
	}
	return def, nil
}

func parseCurve(points []pointSchema) (device.Curve, error) {
	curve := make(device.Curve, 0, len(points))
	prev := time.Duration(-1)
	for _, p := range points {
		at, err := parseDuration(p.At)
		if err != nil {
			return nil, fmt.Errorf("comms curve at: %w", err)
		}
		if at <= prev {
			return nil, fmt.Errorf("comms curve points must be in ascending time order")
		}
		if p.Probability < 0 || p.Probability > 1 {
			return nil, fmt.Errorf("comms curve probability %v outside [0,1]", p.Probability)
		}
		curve = append(curve, timewave.Point{At: at, Probability: p.Probability})
		prev = at
	}
	return curve, nil
}

func parseUsage(s *usageSchema) (*device.UsageDefinition, error) {
	if s == nil {
		return nil, nil
	}
	days, err := timewave.ParseWeekdays(s.Weekdays)
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	window, err := timewave.ParseWindow(s.Window)
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	return &device.UsageDefinition{Weekdays: days, Window: window}, nil
}

// parseDuration treats an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
