// Synthfleet - IoT fleet telemetry simulator
//
// Synthfleet drives a fleet of simulated devices through a discrete-event
// engine: batteries drain, radio links flap, occupants press buttons and
// the resulting property changes stream out over MQTT, InfluxDB, SQLite
// and WebSocket, exactly as a real fleet's telemetry would.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/synthfleet/migrations"

	"github.com/nerrad567/synthfleet/internal/api"
	"github.com/nerrad567/synthfleet/internal/device"
	"github.com/nerrad567/synthfleet/internal/engine"
	"github.com/nerrad567/synthfleet/internal/infrastructure/config"
	"github.com/nerrad567/synthfleet/internal/infrastructure/database"
	"github.com/nerrad567/synthfleet/internal/infrastructure/influxdb"
	"github.com/nerrad567/synthfleet/internal/infrastructure/logging"
	"github.com/nerrad567/synthfleet/internal/infrastructure/mqtt"
	"github.com/nerrad567/synthfleet/internal/scenario"
	"github.com/nerrad567/synthfleet/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// fleetStatsInterval is how often fleet-level counters are written to
// InfluxDB, in simulated time.
const fleetStatsInterval = time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit // linear wiring of optional outputs
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Synthfleet",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open telemetry archive (optional)
	var db *database.DB
	var archive *telemetry.ArchiveSink
	if cfg.Database.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		archive = telemetry.NewArchiveSink(db, log)
	} else {
		log.Info("telemetry archive disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Simulation engine
	eng := engine.New(cfg.Simulation.StartTime)
	eng.SetLogger(log)
	log.Info("engine initialised", "start_time", cfg.Simulation.StartTime)

	// Property-change event log (optional)
	var recorder device.EventRecorder
	if cfg.Simulation.EventLog != "" {
		eventLog, logErr := telemetry.OpenEventLog(cfg.Simulation.EventLog)
		if logErr != nil {
			return fmt.Errorf("opening event log: %w", logErr)
		}
		defer func() {
			if closeErr := eventLog.Close(); closeErr != nil {
				log.Error("error closing event log", "error", closeErr)
			}
		}()
		log.Info("event log open", "path", eventLog.Path())
		recorder = eventLog
	}

	// Telemetry sinks. The registry holds a pointer to the slice so the
	// WebSocket sink can be appended after the API server starts.
	var sinks telemetry.MultiSink
	if mqttClient != nil {
		sinks = append(sinks, telemetry.NewMQTTSink(mqttClient, log))
	}
	if influxClient != nil {
		sinks = append(sinks, telemetry.NewInfluxSink(influxClient))
	}
	if archive != nil {
		sinks = append(sinks, archive)
	}

	// Device registry with a reproducible random source
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	registry := device.NewRegistry(eng, rng, &sinks, recorder, log)
	log.Info("device registry initialised", "seed", seed)

	// Inbound events from the MQTT bus
	if mqttClient != nil {
		if subErr := subscribeInboundEvents(mqttClient, cfg.MQTT.QoS, eng, registry, log); subErr != nil {
			return fmt.Errorf("subscribing to inbound events: %w", subErr)
		}
	}

	// Fleet-level counters to InfluxDB on a simulated-time cadence
	if influxClient != nil {
		var reportStats func(now time.Time)
		reportStats = func(now time.Time) {
			influxClient.WriteFleetStats(registry.Count(), eng.Pending(), now)
			eng.RegisterIn(fleetStatsInterval, reportStats, "system/fleet-stats")
		}
		eng.RegisterIn(fleetStatsInterval, reportStats, "system/fleet-stats")
	}

	// HTTP API + WebSocket hub (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log,
			Registry: registry,
			Engine:   eng,
			Archive:  archive,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		sinks = append(sinks, telemetry.NewHubSink(server.Hub()))
		log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		log.Info("API disabled")
	}

	// Populate the fleet. Devices register their own engine events as
	// they are created, so this happens before the run starts.
	defs, err := scenario.Load(cfg.Simulation.Scenario)
	if err != nil {
		return fmt.Errorf("loading scenario %s: %w", cfg.Simulation.Scenario, err)
	}
	for _, def := range defs {
		if _, createErr := registry.Create(eng.StartTime(), def); createErr != nil {
			return fmt.Errorf("creating device %s: %w", def.ID, createErr)
		}
	}
	log.Info("fleet created",
		"scenario", cfg.Simulation.Scenario,
		"devices", registry.Count(),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the simulation until the horizon, or until interrupted
	horizon := cfg.Simulation.Horizon.Std()
	log.Info("simulation starting",
		"horizon", horizon,
		"realtime", cfg.Simulation.Realtime,
	)

	if cfg.Simulation.Realtime {
		err = eng.RunRealtime(ctx, horizon)
	} else {
		err = eng.Run(ctx, horizon)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	if influxClient != nil {
		influxClient.Flush()
	}

	log.Info("simulation stopped",
		"sim_time", eng.Now(),
		"pending_events", eng.Pending(),
	)

	// Deferred Close() calls will run in reverse order:
	// 1. API server (if enabled)
	// 2. Event log (if configured)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database (if enabled)

	log.Info("Synthfleet stopped")
	return nil
}

// subscribeInboundEvents wires the MQTT event topics onto the engine.
// Events arrive on synthfleet/event/{deviceID} and are queued as
// zero-delay callbacks so devices only mutate on the dispatch goroutine.
func subscribeInboundEvents(client *mqtt.Client, qos int, eng *engine.Engine, registry *device.Registry, log *logging.Logger) error {
	topics := mqtt.Topics{}
	return client.Subscribe(topics.AllEvents(), byte(qos), func(topic string, payload []byte) error {
		deviceID := mqtt.EventDeviceID(topic)
		if deviceID == "" {
			log.Warn("event on malformed topic", "topic", topic)
			return nil
		}

		var ev device.InboundEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Warn("discarding malformed event payload", "topic", topic, "error", err)
			return nil
		}
		// The topic segment is authoritative for addressing.
		ev.DeviceID = deviceID
		ev.Stamp()

		eng.RegisterIn(0, func(now time.Time) {
			if err := registry.Dispatch(now, ev); err != nil {
				log.Warn("event dispatch failed",
					"event_id", ev.EventID, "device_id", ev.DeviceID, "error", err)
			}
		}, "mqtt/event/"+ev.EventID)

		log.Debug("event queued from MQTT",
			"event_id", ev.EventID, "device_id", ev.DeviceID, "event", ev.Name)
		return nil
	})
}

// getConfigPath returns the configuration file path.
// Uses SYNTHFLEET_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SYNTHFLEET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all enabled infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
