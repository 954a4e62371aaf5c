package bus

import (
	"context"
	"testing"
	"time"
)

func TestMailbox_OverwritesUnread(t *testing.T) {
	m := NewMailbox[int]()
	sub := m.Subscribe()

	m.Publish(1)
	m.Publish(2)
	m.Publish(3)

	// Only the latest value survives; intermediates are lost by design.
	v, ok := sub.TryNext()
	if !ok || v != 3 {
		t.Fatalf("TryNext=%v,%v want 3,true", v, ok)
	}
	if _, ok := sub.TryNext(); ok {
		t.Fatalf("second TryNext should report no change")
	}
}

func TestMailbox_IndependentCursors(t *testing.T) {
	m := NewMailbox[string]()
	a := m.Subscribe()
	b := m.Subscribe()

	m.Publish("x")
	if v, ok := a.TryNext(); !ok || v != "x" {
		t.Fatalf("a: TryNext=%v,%v", v, ok)
	}
	// a consuming the value must not mark it seen for b.
	if v, ok := b.TryNext(); !ok || v != "x" {
		t.Fatalf("b: TryNext=%v,%v", v, ok)
	}
}

func TestMailbox_SubscribeSeesExistingValue(t *testing.T) {
	m := NewMailbox[int]()
	m.Publish(7)

	sub := m.Subscribe()
	v, ok := sub.TryNext()
	if !ok || v != 7 {
		t.Fatalf("TryNext=%v,%v want 7,true", v, ok)
	}
}

func TestMailbox_LatestMarksSeen(t *testing.T) {
	m := NewMailbox[int]()
	sub := m.Subscribe()

	m.Publish(5)
	if v := sub.Latest(); v != 5 {
		t.Fatalf("Latest=%v want 5", v)
	}
	if _, ok := sub.TryNext(); ok {
		t.Fatalf("TryNext after Latest should report no change")
	}
}

func TestMailbox_ChangedIsSelectable(t *testing.T) {
	m := NewMailbox[int]()
	sub := m.Subscribe()

	// Nothing published: Changed must not be ready.
	select {
	case <-sub.Changed():
		t.Fatalf("Changed ready before any publish")
	default:
	}

	done := make(chan int, 1)
	go func() {
		<-sub.Changed()
		done <- sub.Latest()
	}()

	m.Publish(9)
	select {
	case v := <-done:
		if v != 9 {
			t.Fatalf("got %v want 9", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("Changed never became ready")
	}

	// Pending unseen value: Changed must be immediately ready.
	m.Publish(10)
	select {
	case <-sub.Changed():
	default:
		t.Fatalf("Changed not ready with pending value")
	}
}

func TestMailbox_NextMatchingSkipsNonMatching(t *testing.T) {
	m := NewMailbox[int]()
	sub := m.Subscribe()

	got := make(chan int, 1)
	go func() {
		v, err := sub.NextMatching(context.Background(), func(v int) bool { return v == 0 })
		if err != nil {
			return
		}
		got <- v
	}()

	m.Publish(3)
	time.Sleep(10 * time.Millisecond)
	m.Publish(1)
	time.Sleep(10 * time.Millisecond)
	m.Publish(0)

	select {
	case v := <-got:
		if v != 0 {
			t.Fatalf("got %v want 0", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("NextMatching never returned")
	}
}

func TestMailbox_NextHonorsContext(t *testing.T) {
	m := NewMailbox[int]()
	sub := m.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := sub.Next(ctx); err == nil {
		t.Fatalf("Next should fail once the context expires")
	}
}
