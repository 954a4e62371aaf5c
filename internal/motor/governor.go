package motor

import (
	"context"
	"log"
	"time"

	"quadfc/internal/bus"
)

// Ramp timing is a protocol requirement of the ESCs: a boot delay, then
// repeated minimum-throttle commands to arm them, then repeated
// direction-configuration commands. Package vars so tests can shrink the
// delays; the step counts are fixed.
var (
	rampBootDelay = 500 * time.Millisecond
	rampStepDelay = 50 * time.Millisecond

	afterFn = time.After
)

const (
	rampThrottleSteps  = 50
	rampDirectionSteps = 10
)

type GovernorConfig struct {
	// Reverse marks motors that spin opposite the default direction.
	Reverse [4]bool
	// Timeout bounds each wait for a speed or blocker update while armed;
	// expiry disarms the motors. Not an error: it is the failsafe against
	// a stalled upstream publisher.
	Timeout time.Duration
	// SpeedMin and SpeedMax clamp commanded speeds before they reach the
	// driver.
	SpeedMin int16
	SpeedMax int16
}

// Governor owns the arming/disarming state machine and is the sole owner
// of the motor driver handle. It consumes commanded speeds and the arm
// blocker mask, and publishes the externally visible motor state.
type Governor struct {
	cfg GovernorConfig
	drv Driver

	speeds  *bus.Subscriber[[4]int16]
	blocker *bus.Subscriber[ArmBlocker]
	state   *bus.Mailbox[State]
}

func NewGovernor(cfg GovernorConfig, drv Driver, speeds *bus.Mailbox[[4]int16], blocker *bus.Mailbox[ArmBlocker], state *bus.Mailbox[State]) *Governor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	if cfg.SpeedMax == 0 {
		cfg.SpeedMax = 2047
	}
	return &Governor{
		cfg:     cfg,
		drv:     drv,
		speeds:  speeds.Subscribe(),
		blocker: blocker.Subscribe(),
		state:   state,
	}
}

// Run executes the state machine until ctx is canceled:
// Disarmed(reason) -> Arming -> Armed{Idle|Running} -> Disarmed(reason).
// It returns only the ctx error; every fault path loops back to the outer
// wait instead of terminating.
func (g *Governor) Run(ctx context.Context) error {
	g.state.Publish(Disarmed(DisarmNotInitialized))

	for {
		// Wait for the blocker mask to be observed completely empty.
		if _, err := g.blocker.NextMatching(ctx, ArmBlocker.IsEmpty); err != nil {
			return err
		}

		g.state.Publish(Arming())

		// The ramp runs to completion unconditionally once started; the
		// ESC protocol does not allow aborting it halfway.
		log.Printf("governor: initializing motors")
		if err := g.sleep(ctx, rampBootDelay); err != nil {
			return err
		}
		for i := 0; i < rampThrottleSteps; i++ {
			if err := g.drv.ThrottleMinimum(); err != nil {
				log.Printf("governor: throttle minimum failed: %v", err)
			}
			if err := g.sleep(ctx, rampStepDelay); err != nil {
				return err
			}
		}
		log.Printf("governor: setting motor directions")
		for i := 0; i < rampDirectionSteps; i++ {
			if err := g.drv.SetDirections(g.cfg.Reverse); err != nil {
				log.Printf("governor: set directions failed: %v", err)
			}
			if err := g.sleep(ctx, rampStepDelay); err != nil {
				return err
			}
		}

		// A blocking condition may have appeared during the ~3.5 s ramp;
		// re-read the mask before ever reaching the armed state.
		if flag := g.blocker.Latest(); !flag.IsEmpty() {
			log.Printf("governor: disarming motors -> arming prevention (%s)", flag)
			g.state.Publish(Disarmed(DisarmFault))
			continue
		}

		log.Printf("governor: motors armed and active")
		if err := g.runArmed(ctx); err != nil {
			return err
		}
	}
}

// runArmed races speed updates, blocker updates and the timeout until a
// disarm condition ends the armed phase. Entry to the armed state is gated
// on a fully clear mask, but staying armed is gated only on CmdDisarm and
// the timeout: other blocker bits do not force a disarm once armed.
func (g *Governor) runArmed(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-g.speeds.Changed():
			speeds := g.speeds.Latest()
			if speeds == ([4]int16{}) {
				if err := g.drv.ThrottleMinimum(); err != nil {
					log.Printf("governor: throttle minimum failed: %v", err)
				}
				g.state.Publish(ArmedIdle())
				continue
			}
			speeds = g.clamp(speeds)
			if err := g.drv.Throttle(speeds); err != nil {
				log.Printf("governor: throttle failed: %v", err)
			}
			g.state.Publish(ArmedRunning(speeds))

		case <-g.blocker.Changed():
			flag := g.blocker.Latest()
			if !flag.Has(BlockerCmdDisarm) {
				continue
			}
			log.Printf("governor: disarming motors -> commanded")
			if err := g.drv.ThrottleMinimum(); err != nil {
				log.Printf("governor: throttle minimum failed: %v", err)
			}
			g.state.Publish(Disarmed(DisarmCommanded))
			return nil

		case <-afterFn(g.cfg.Timeout):
			log.Printf("governor: disarming motors -> timeout")
			if err := g.drv.ThrottleMinimum(); err != nil {
				log.Printf("governor: throttle minimum failed: %v", err)
			}
			g.state.Publish(Disarmed(DisarmTimeout))
			return nil
		}
	}
}

func (g *Governor) clamp(speeds [4]int16) [4]int16 {
	for i, v := range speeds {
		if v < g.cfg.SpeedMin {
			speeds[i] = g.cfg.SpeedMin
		}
		if v > g.cfg.SpeedMax {
			speeds[i] = g.cfg.SpeedMax
		}
	}
	return speeds
}

func (g *Governor) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-afterFn(d):
		return nil
	}
}
