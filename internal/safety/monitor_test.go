package safety

import (
	"context"
	"testing"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/motor"
)

func startMonitor(t *testing.T, cfg Config) (*Monitor, *bus.Subscriber[motor.ArmBlocker]) {
	t.Helper()

	out := bus.NewMailbox[motor.ArmBlocker]()
	sub := out.Subscribe()
	m := NewMonitor(cfg, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return m, sub
}

func waitMask(t *testing.T, sub *bus.Subscriber[motor.ArmBlocker], pred func(motor.ArmBlocker) bool) motor.ArmBlocker {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mask, err := sub.NextMatching(ctx, pred)
	if err != nil {
		t.Fatalf("expected mask never published: %v", err)
	}
	return mask
}

func TestMonitor_BootGraceSetThenCleared(t *testing.T) {
	_, sub := startMonitor(t, Config{BootGrace: 30 * time.Millisecond})

	mask := waitMask(t, sub, func(m motor.ArmBlocker) bool { return true })
	if !mask.Has(motor.BlockerBootGrace) {
		t.Fatalf("initial mask=%s want boot_grace set", mask)
	}

	mask = waitMask(t, sub, motor.ArmBlocker.IsEmpty)
	if !mask.IsEmpty() {
		t.Fatalf("mask=%s want empty after grace period", mask)
	}
}

func TestMonitor_DisarmAndClear(t *testing.T) {
	m, sub := startMonitor(t, Config{BootGrace: time.Millisecond})
	waitMask(t, sub, motor.ArmBlocker.IsEmpty)

	m.Disarm()
	mask := waitMask(t, sub, func(m motor.ArmBlocker) bool { return !m.IsEmpty() })
	if mask != motor.BlockerCmdDisarm {
		t.Fatalf("mask=%s want cmd_disarm only", mask)
	}

	m.ClearDisarm()
	waitMask(t, sub, motor.ArmBlocker.IsEmpty)
}

func TestMonitor_SetPublishesOnlyOnChange(t *testing.T) {
	m, sub := startMonitor(t, Config{BootGrace: time.Millisecond})
	waitMask(t, sub, motor.ArmBlocker.IsEmpty)

	m.Set(motor.BlockerRxFailsafe, true)
	waitMask(t, sub, func(mask motor.ArmBlocker) bool { return mask.Has(motor.BlockerRxFailsafe) })

	// An identical report must not republish.
	m.Set(motor.BlockerRxFailsafe, true)
	if _, ok := sub.TryNext(); ok {
		t.Fatalf("unchanged mask was republished")
	}

	m.Set(motor.BlockerRxFailsafe, false)
	if mask := m.Mask(); !mask.IsEmpty() {
		t.Fatalf("mask=%s want empty", mask)
	}
}
