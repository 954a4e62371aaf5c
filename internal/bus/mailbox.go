// Package bus implements the single-slot broadcast channels connecting the
// flight-control tasks.
//
// A Mailbox holds at most one pending value: a publish overwrites any value
// not yet observed, so subscribers may miss intermediate updates but always
// see the most recent one. This matches what control setpoints need (newer
// always supersedes older) and is NOT a queue; consumers must never assume
// delivery of every published value.
//
// Each Subscriber tracks independently whether it has seen the current
// value, so one slow consumer cannot stall another.
package bus

import (
	"context"
	"sync"
)

type Mailbox[T any] struct {
	mu     sync.Mutex
	val    T
	gen    uint64
	notify chan struct{}
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{})}
}

// Publish replaces the current value. It never blocks; a value the
// subscribers have not read yet is silently dropped.
func (m *Mailbox[T]) Publish(v T) {
	m.mu.Lock()
	m.val = v
	m.gen++
	close(m.notify)
	m.notify = make(chan struct{})
	m.mu.Unlock()
}

// Subscribe registers a new independent cursor. A value already in the
// mailbox at subscription time counts as unseen, so the first read observes
// it immediately.
func (m *Mailbox[T]) Subscribe() *Subscriber[T] {
	return &Subscriber[T]{mb: m}
}

// Subscriber is a single consumer's view of a Mailbox. Not safe for
// concurrent use by multiple goroutines; each task owns its subscriber.
type Subscriber[T any] struct {
	mb   *Mailbox[T]
	seen uint64
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Changed returns a channel that is ready when the mailbox holds a value
// this subscriber has not taken yet. It is meant for select-based racing
// against timers and other subscribers; follow a ready Changed with Latest.
func (s *Subscriber[T]) Changed() <-chan struct{} {
	s.mb.mu.Lock()
	defer s.mb.mu.Unlock()
	if s.mb.gen != s.seen {
		return closedCh
	}
	return s.mb.notify
}

// Latest returns the current value without waiting and marks it seen.
func (s *Subscriber[T]) Latest() T {
	s.mb.mu.Lock()
	defer s.mb.mu.Unlock()
	s.seen = s.mb.gen
	return s.mb.val
}

// TryNext returns (value, true) if the mailbox changed since the last take,
// without blocking.
func (s *Subscriber[T]) TryNext() (T, bool) {
	s.mb.mu.Lock()
	defer s.mb.mu.Unlock()
	if s.mb.gen == s.seen {
		var zero T
		return zero, false
	}
	s.seen = s.mb.gen
	return s.mb.val, true
}

// Next blocks until the mailbox changes, then takes the latest value.
func (s *Subscriber[T]) Next(ctx context.Context) (T, error) {
	for {
		if v, ok := s.TryNext(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-s.Changed():
		}
	}
}

// NextMatching blocks until a changed value satisfies pred. Values that do
// not satisfy pred are consumed and dropped.
func (s *Subscriber[T]) NextMatching(ctx context.Context, pred func(T) bool) (T, error) {
	for {
		v, err := s.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if pred(v) {
			return v, nil
		}
	}
}
