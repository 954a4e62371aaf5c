package main

import (
	"context"
	"testing"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/config"
	"quadfc/internal/control"
	"quadfc/internal/motor"
	"quadfc/internal/sim"
)

func TestAttitudeConfigMapping(t *testing.T) {
	c := config.ControlConfig{
		LoopPeriod: 4 * time.Millisecond,
		OuterRoll:  config.PIDConfig{P: 10, I: 0.1},
		InnerYaw:   config.PIDConfig{P: 60, I: 1, FilterTau: 0.01},
	}

	ac := attitudeConfig(c)
	if ac.LoopPeriod != 4*time.Millisecond {
		t.Fatalf("loop period=%s", ac.LoopPeriod)
	}
	if ac.OuterRoll != (control.PIDSettings{P: 10, I: 0.1}) {
		t.Fatalf("outer roll=%+v", ac.OuterRoll)
	}
	if ac.InnerYaw != (control.PIDSettings{P: 60, I: 1, FilterTau: 0.01}) {
		t.Fatalf("inner yaw=%+v", ac.InnerYaw)
	}
}

func TestOpenDriver_Backends(t *testing.T) {
	drv, err := openDriver(config.MotorsConfig{Backend: "none"})
	if err != nil {
		t.Fatalf("none backend: %v", err)
	}
	if _, ok := drv.(motor.NopDriver); !ok {
		t.Fatalf("driver=%T want NopDriver", drv)
	}

	if _, err := openDriver(config.MotorsConfig{Backend: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

// Closed-loop smoke test: attitude controller vs. the toy dynamics, no
// governor involved. A positive roll setpoint must actually roll the
// simulated body.
func TestClosedLoopRespondsToSetpoint(t *testing.T) {
	senseMb := bus.NewMailbox[control.Measurement]()
	resetMb := bus.NewMailbox[bool]()
	modeMb := bus.NewMailbox[control.Mode]()
	actuationMb := bus.NewMailbox[control.Vec3]()

	cfg := control.AttitudeConfig{
		LoopPeriod: time.Millisecond,
		OuterRoll:  control.PIDSettings{P: 10, I: 0.1},
		OuterPitch: control.PIDSettings{P: 10, I: 0.1},
		OuterYaw:   control.PIDSettings{P: 8, I: 0.001},
		InnerRoll:  control.PIDSettings{P: 30, I: 1, D: 0.01, FilterTau: 0.01},
		InnerPitch: control.PIDSettings{P: 40, I: 1, D: 0.01, FilterTau: 0.01},
		InnerYaw:   control.PIDSettings{P: 60, I: 1},
	}
	controller := control.NewAttitudeController(cfg, senseMb, resetMb, modeMb, actuationMb)
	dynamics := sim.NewDynamics(sim.DynamicsConfig{Period: time.Millisecond}, actuationMb, senseMb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = controller.Run(ctx) }()
	go func() { _ = dynamics.Run(ctx) }()

	modeMb.Publish(control.Horizon(control.Vec3{X: 0.3}))

	sub := senseMb.Subscribe()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if _, err := sub.NextMatching(waitCtx, func(m control.Measurement) bool {
		return m.Angle.X > 0.2
	}); err != nil {
		t.Fatalf("simulated body never rolled toward the setpoint: %v", err)
	}
}
