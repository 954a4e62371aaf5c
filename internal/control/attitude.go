package control

import (
	"context"
	"log"
	"math"
	"time"

	"quadfc/internal/bus"
)

// PIDSettings are the per-axis tuning parameters supplied by configuration.
// FilterTau enables the derivative low-pass when > 0.
type PIDSettings struct {
	P, I, D   float64
	FilterTau float64
}

// AttitudeConfig carries the tuning for one controller instance. The loop
// period must match the rate the estimator publishes measurements at.
type AttitudeConfig struct {
	LoopPeriod time.Duration

	OuterRoll  PIDSettings
	OuterPitch PIDSettings
	OuterYaw   PIDSettings
	InnerRoll  PIDSettings
	InnerPitch PIDSettings
	InnerYaw   PIDSettings
}

// AttitudeController turns attitude measurements and the stabilization
// setpoint into a 3-axis actuation vector, using a cascaded angle/rate
// scheme in horizon mode and the rate loop alone in acro mode.
//
// It owns all six PID instances; the only external mutation of controller
// state is the integrator-reset signal.
type AttitudeController struct {
	sense   *bus.Subscriber[Measurement]
	reset   *bus.Subscriber[bool]
	modeSub *bus.Subscriber[Mode]
	actuate *bus.Mailbox[Vec3]

	mode Mode

	outerRoll, outerPitch, outerYaw *PID
	innerRoll, innerPitch, innerYaw *PID
}

func NewAttitudeController(cfg AttitudeConfig, sense *bus.Mailbox[Measurement], reset *bus.Mailbox[bool], mode *bus.Mailbox[Mode], actuate *bus.Mailbox[Vec3]) *AttitudeController {
	if cfg.LoopPeriod <= 0 {
		cfg.LoopPeriod = 5 * time.Millisecond
	}
	dt := cfg.LoopPeriod.Seconds()

	newAxis := func(s PIDSettings, circular bool) *PID {
		p := NewPID(s.P, s.I, s.D, dt)
		if circular {
			p.WithCircular(-math.Pi, math.Pi)
		}
		if s.FilterTau > 0 {
			p.WithDerivativeFilter(s.FilterTau)
		}
		return p
	}

	return &AttitudeController{
		sense:      sense.Subscribe(),
		reset:      reset.Subscribe(),
		modeSub:    mode.Subscribe(),
		actuate:    actuate,
		outerRoll:  newAxis(cfg.OuterRoll, false),
		outerPitch: newAxis(cfg.OuterPitch, false),
		outerYaw:   newAxis(cfg.OuterYaw, true),
		innerRoll:  newAxis(cfg.InnerRoll, false),
		innerPitch: newAxis(cfg.InnerPitch, false),
		innerYaw:   newAxis(cfg.InnerYaw, true),
	}
}

// Run executes the control loop until ctx is canceled. The wait for the
// next measurement is the sole suspension point pacing the loop; mode and
// reset reads are best-effort polls that never gate it.
func (c *AttitudeController) Run(ctx context.Context) error {
	mode, err := c.modeSub.Next(ctx)
	if err != nil {
		return err
	}
	c.mode = mode

	log.Printf("attitude: entering control loop, mode %s", c.mode.Kind)
	for {
		if m, ok := c.modeSub.TryNext(); ok {
			if !m.SameKind(c.mode) {
				log.Printf("attitude: stabilization mode -> %s", m.Kind)
			}
			c.mode = m
		}

		if v, ok := c.reset.TryNext(); ok && v {
			c.resetIntegrals()
		}

		meas, err := c.sense.Next(ctx)
		if err != nil {
			return err
		}

		c.actuate.Publish(c.compute(meas))
	}
}

// resetIntegrals zeroes the accumulated integral term on all six axes in
// one step; a partial reset would leave the cascade inconsistent.
func (c *AttitudeController) resetIntegrals() {
	c.outerRoll.ResetIntegral()
	c.outerPitch.ResetIntegral()
	c.outerYaw.ResetIntegral()
	c.innerRoll.ResetIntegral()
	c.innerPitch.ResetIntegral()
	c.innerYaw.ResetIntegral()
}

func (c *AttitudeController) compute(meas Measurement) Vec3 {
	switch c.mode.Kind {
	case ModeHorizon:
		// Outer angle loop produces the rate setpoint for the inner loop.
		outerErr := c.mode.Setpoint.Sub(meas.Angle)
		rateRef := Vec3{
			X: c.outerRoll.Update(outerErr.X),
			Y: c.outerPitch.Update(outerErr.Y),
			Z: c.outerYaw.Update(outerErr.Z),
		}
		innerErr := rateRef.Sub(meas.Rate)
		return Vec3{
			X: c.innerRoll.Update(innerErr.X),
			Y: c.innerPitch.Update(innerErr.Y),
			Z: c.innerYaw.Update(innerErr.Z),
		}

	default: // ModeAcro: the outer loop is bypassed entirely.
		rateErr := c.mode.Setpoint.Sub(meas.Rate)
		return Vec3{
			X: c.innerRoll.Update(rateErr.X),
			Y: c.innerPitch.Update(rateErr.Y),
			Z: c.innerYaw.Update(rateErr.Z),
		}
	}
}
