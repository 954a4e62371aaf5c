package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/config"
	"quadfc/internal/control"
	"quadfc/internal/motor"
	"quadfc/internal/safety"
	"quadfc/internal/sim"
	"quadfc/internal/telemetry"
	"quadfc/internal/web"
)

func main() {
	var configPath string
	var simMode bool
	flag.StringVar(&configPath, "config", "./quadfc.yaml", "Path to YAML config")
	flag.BoolVar(&simMode, "sim", false, "Close the control loop with the built-in simulator")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if simMode {
		cfg.Sim.Enable = true
		if cfg.Sim.HoverThrottle == 0 {
			cfg.Sim.HoverThrottle = 900
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The channel bus: one mailbox per contract, constructed once and
	// handed to the tasks that own each end.
	speedsMb := bus.NewMailbox[[4]int16]()
	blockerMb := bus.NewMailbox[motor.ArmBlocker]()
	stateMb := bus.NewMailbox[motor.State]()
	senseMb := bus.NewMailbox[control.Measurement]()
	resetMb := bus.NewMailbox[bool]()
	modeMb := bus.NewMailbox[control.Mode]()
	actuationMb := bus.NewMailbox[control.Vec3]()

	drv, err := openDriver(cfg.Motors)
	if err != nil {
		log.Fatalf("motor driver init failed: %v", err)
	}
	defer drv.Close()

	monitor := safety.NewMonitor(safety.Config{BootGrace: cfg.Safety.BootGrace}, blockerMb)
	governor := motor.NewGovernor(motor.GovernorConfig{
		Reverse:  cfg.Motors.Reverse,
		Timeout:  cfg.Governor.Timeout,
		SpeedMin: cfg.Motors.SpeedMin,
		SpeedMax: cfg.Motors.SpeedMax,
	}, drv, speedsMb, blockerMb, stateMb)
	controller := control.NewAttitudeController(attitudeConfig(cfg.Control), senseMb, resetMb, modeMb, actuationMb)

	log.Printf("quadfc starting")
	log.Printf("motors backend=%s governor timeout=%s loop period=%s",
		cfg.Motors.Backend, cfg.Governor.Timeout, cfg.Control.LoopPeriod)

	runTask := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				log.Printf("%s stopped: %v", name, err)
				cancel()
			}
		}()
	}

	runTask("safety monitor", monitor.Run)
	runTask("motor governor", governor.Run)
	runTask("attitude controller", controller.Run)

	// Level hold until a pilot/autopilot publishes something else.
	modeMb.Publish(control.Horizon(control.Vec3{}))

	if cfg.Sim.Enable {
		log.Printf("sim: closed-loop simulation enabled")
		dynamics := sim.NewDynamics(sim.DynamicsConfig{Period: cfg.Control.LoopPeriod}, actuationMb, senseMb)
		mixer := sim.NewMixer(sim.MixerConfig{
			Hover:    cfg.Sim.HoverThrottle,
			SpeedMin: cfg.Motors.SpeedMin,
			SpeedMax: cfg.Motors.SpeedMax,
		}, actuationMb, speedsMb)
		runTask("sim dynamics", dynamics.Run)
		runTask("sim mixer", mixer.Run)
	}

	status := web.NewStatus(stateMb, actuationMb, monitor)
	runTask("status tracker", status.Run)

	if cfg.Web.Enable {
		handler := web.Handler(status, monitor, stateMb)
		runTask("web server", func(ctx context.Context) error {
			return web.Serve(ctx, cfg.Web.Addr, handler)
		})
	}

	if cfg.Telemetry.MQTT.Enable {
		mq := telemetry.NewMQTT(telemetry.MQTTConfig{
			Broker:      cfg.Telemetry.MQTT.Broker,
			ClientID:    cfg.Telemetry.MQTT.ClientID,
			TopicPrefix: cfg.Telemetry.MQTT.TopicPrefix,
		}, stateMb, actuationMb, monitor)
		runTask("mqtt telemetry", mq.Run)
	}

	if cfg.Telemetry.UDP.Enable {
		beacon, err := telemetry.NewBeacon(cfg.Telemetry.UDP.Dest, cfg.Telemetry.UDP.Interval)
		if err != nil {
			log.Fatalf("udp beacon init failed: %v", err)
		}
		defer beacon.Close()
		runTask("udp beacon", func(ctx context.Context) error {
			return beacon.Run(ctx, func(seq uint64) []byte {
				b, err := json.Marshal(status.Snapshot(time.Now().UTC()))
				if err != nil {
					return nil
				}
				return b
			})
		})
	}

	<-ctx.Done()
	log.Printf("quadfc stopping")
}

// openDriver builds the ESC driver chain from config: the selected
// backend, optionally behind the GPIO power-rail gate.
func openDriver(cfg config.MotorsConfig) (motor.Driver, error) {
	var drv motor.Driver
	switch cfg.Backend {
	case "serial":
		s, err := motor.NewSerialDriver(cfg.Device, cfg.Baud)
		if err != nil {
			return nil, err
		}
		drv = s
	case "none":
		drv = motor.NopDriver{}
	default:
		return nil, fmt.Errorf("unknown motors backend %q", cfg.Backend)
	}

	if cfg.EnablePin > 0 {
		gated, err := motor.NewEnableGate(drv, cfg.EnablePin)
		if err != nil {
			_ = drv.Close()
			return nil, err
		}
		drv = gated
	}
	return drv, nil
}

func attitudeConfig(c config.ControlConfig) control.AttitudeConfig {
	return control.AttitudeConfig{
		LoopPeriod: c.LoopPeriod,
		OuterRoll:  pidSettings(c.OuterRoll),
		OuterPitch: pidSettings(c.OuterPitch),
		OuterYaw:   pidSettings(c.OuterYaw),
		InnerRoll:  pidSettings(c.InnerRoll),
		InnerPitch: pidSettings(c.InnerPitch),
		InnerYaw:   pidSettings(c.InnerYaw),
	}
}

func pidSettings(c config.PIDConfig) control.PIDSettings {
	return control.PIDSettings{P: c.P, I: c.I, D: c.D, FilterTau: c.FilterTau}
}
