// Package sim closes the control loop without hardware: a toy rigid-body
// model produces attitude measurements from the actuation vector, and a
// mixer turns actuation into motor speed commands. Deterministic on
// purpose, so bench runs and tests behave the same way every time.
package sim

import (
	"context"
	"math"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/control"
)

type DynamicsConfig struct {
	// Period is the measurement publish rate; it paces the attitude
	// controller, so it should match the configured control loop period.
	Period time.Duration
	// Gain scales actuation into angular acceleration (rad/s^2 per unit).
	Gain float64
	// Damping bleeds off body rate, keeping the toy model stable.
	Damping float64
}

// Dynamics integrates body rate and angle from the latest actuation and
// publishes (angle, rate) measurement pairs at a fixed rate.
type Dynamics struct {
	cfg DynamicsConfig

	actuation *bus.Subscriber[control.Vec3]
	sense     *bus.Mailbox[control.Measurement]

	angle control.Vec3
	rate  control.Vec3
}

func NewDynamics(cfg DynamicsConfig, actuation *bus.Mailbox[control.Vec3], sense *bus.Mailbox[control.Measurement]) *Dynamics {
	if cfg.Period <= 0 {
		cfg.Period = 5 * time.Millisecond
	}
	if cfg.Gain == 0 {
		cfg.Gain = 0.5
	}
	if cfg.Damping == 0 {
		cfg.Damping = 0.2
	}
	return &Dynamics{
		cfg:       cfg,
		actuation: actuation.Subscribe(),
		sense:     sense,
	}
}

// Run publishes measurements until ctx is canceled.
func (d *Dynamics) Run(ctx context.Context) error {
	t := time.NewTicker(d.cfg.Period)
	defer t.Stop()

	dt := d.cfg.Period.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			d.step(d.actuation.Latest(), dt)
			d.sense.Publish(control.Measurement{Angle: d.angle, Rate: d.rate})
		}
	}
}

func (d *Dynamics) step(act control.Vec3, dt float64) {
	accel := act.Scale(d.cfg.Gain).Sub(d.rate.Scale(d.cfg.Damping))
	d.rate = control.Vec3{
		X: d.rate.X + accel.X*dt,
		Y: d.rate.Y + accel.Y*dt,
		Z: d.rate.Z + accel.Z*dt,
	}
	d.angle = control.Vec3{
		X: d.angle.X + d.rate.X*dt,
		Y: d.angle.Y + d.rate.Y*dt,
		Z: wrapPi(d.angle.Z + d.rate.Z*dt),
	}
}

// wrapPi maps an angle into [-pi, pi).
func wrapPi(v float64) float64 {
	v = math.Mod(v+math.Pi, 2*math.Pi)
	if v < 0 {
		v += 2 * math.Pi
	}
	return v - math.Pi
}
