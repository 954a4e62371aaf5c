// Package safety owns the arm blocker mask. Individual monitors report
// conditions into it; the aggregate mask is what the motor governor gates
// arming on.
package safety

import (
	"context"
	"log"
	"sync"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/motor"
)

var afterFn = time.After

type Config struct {
	// BootGrace keeps the boot-grace flag set for this long after Run
	// starts, so the vehicle cannot be armed straight out of reset.
	BootGrace time.Duration
}

// Monitor aggregates blocking conditions into a single ArmBlocker mask and
// republishes it on every change. All flags except CmdDisarm are owned by
// monitoring code via Set; CmdDisarm is operator intent via Disarm and
// ClearDisarm.
type Monitor struct {
	cfg Config

	mu   sync.Mutex
	mask motor.ArmBlocker

	out *bus.Mailbox[motor.ArmBlocker]
}

func NewMonitor(cfg Config, out *bus.Mailbox[motor.ArmBlocker]) *Monitor {
	if cfg.BootGrace <= 0 {
		cfg.BootGrace = 3 * time.Second
	}
	return &Monitor{cfg: cfg, out: out, mask: motor.BlockerBootGrace}
}

// Run publishes the initial mask, clears the boot-grace flag once the
// grace period elapses, then idles until ctx is canceled. Condition
// changes arriving via Set/Disarm are published as they happen.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	m.out.Publish(m.mask)
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-afterFn(m.cfg.BootGrace):
		log.Printf("safety: boot grace period over")
		m.Set(motor.BlockerBootGrace, false)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Set updates one condition flag. The mask is republished only when it
// actually changes, so repeated identical reports are cheap.
func (m *Monitor) Set(flag motor.ArmBlocker, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.mask.Without(flag)
	if on {
		next = m.mask.With(flag)
	}
	if next == m.mask {
		return
	}
	m.mask = next
	m.out.Publish(next)
}

// Disarm sets the operator disarm flag. Effective immediately: the
// governor disarms on this flag even while armed.
func (m *Monitor) Disarm() { m.Set(motor.BlockerCmdDisarm, true) }

// ClearDisarm removes the operator disarm flag, allowing re-arming once
// all other conditions clear.
func (m *Monitor) ClearDisarm() { m.Set(motor.BlockerCmdDisarm, false) }

// Mask returns the current aggregate mask.
func (m *Monitor) Mask() motor.ArmBlocker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mask
}
