package sim

import (
	"context"
	"math"

	"quadfc/internal/bus"
	"quadfc/internal/control"
)

type MixerConfig struct {
	// Hover is the collective base speed the axis corrections ride on.
	Hover int16
	// Scale converts actuation units into speed counts.
	Scale float64
	// SpeedMin and SpeedMax bound the mixed outputs.
	SpeedMin int16
	SpeedMax int16
}

// Mixer maps the 3-axis actuation vector onto four motor speeds in the
// usual quad-X layout: motors 0..3 are front-right, front-left,
// rear-left, rear-right.
type Mixer struct {
	cfg MixerConfig

	actuation *bus.Subscriber[control.Vec3]
	speeds    *bus.Mailbox[[4]int16]
}

func NewMixer(cfg MixerConfig, actuation *bus.Mailbox[control.Vec3], speeds *bus.Mailbox[[4]int16]) *Mixer {
	if cfg.Scale == 0 {
		cfg.Scale = 50
	}
	if cfg.SpeedMax == 0 {
		cfg.SpeedMax = 2047
	}
	return &Mixer{
		cfg:       cfg,
		actuation: actuation.Subscribe(),
		speeds:    speeds,
	}
}

// Run republishes a speed vector for every actuation update.
func (m *Mixer) Run(ctx context.Context) error {
	for {
		act, err := m.actuation.Next(ctx)
		if err != nil {
			return err
		}
		m.speeds.Publish(m.Mix(act))
	}
}

// Mix computes the per-motor speeds for one actuation sample.
func (m *Mixer) Mix(act control.Vec3) [4]int16 {
	roll := act.X * m.cfg.Scale
	pitch := act.Y * m.cfg.Scale
	yaw := act.Z * m.cfg.Scale
	base := float64(m.cfg.Hover)

	raw := [4]float64{
		base - roll + pitch + yaw, // front right
		base + roll + pitch - yaw, // front left
		base + roll - pitch + yaw, // rear left
		base - roll - pitch - yaw, // rear right
	}

	var out [4]int16
	for i, v := range raw {
		v = math.Round(v)
		if v < float64(m.cfg.SpeedMin) {
			v = float64(m.cfg.SpeedMin)
		}
		if v > float64(m.cfg.SpeedMax) {
			v = float64(m.cfg.SpeedMax)
		}
		out[i] = int16(v)
	}
	return out
}
