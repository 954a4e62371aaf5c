package web

import (
	"context"
	"sync"
	"time"

	"quadfc/internal/bus"
	"quadfc/internal/control"
	"quadfc/internal/motor"
	"quadfc/internal/safety"
)

// Snapshot is the JSON shape served by /api/status and streamed over the
// websocket.
type Snapshot struct {
	Phase       string    `json:"phase"`
	Reason      string    `json:"reason,omitempty"`
	Speeds      *[4]int16 `json:"speeds,omitempty"`
	Blockers    string    `json:"blockers"`
	Armable     bool      `json:"armable"`
	Actuation   *vec      `json:"actuation,omitempty"`
	LastUpdate  string    `json:"last_update_utc,omitempty"`
	GeneratedAt string    `json:"generated_at_utc"`
}

type vec struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// withState returns a copy of the snapshot with the phase fields replaced
// by the given state.
func (s Snapshot) withState(st motor.State) Snapshot {
	s.Phase = st.Phase.String()
	s.Reason = ""
	s.Speeds = nil
	if st.Phase == motor.PhaseDisarmed {
		s.Reason = st.Reason.String()
	}
	if st.Phase == motor.PhaseArmedRunning {
		speeds := st.Speeds
		s.Speeds = &speeds
	}
	return s
}

// Status tracks the latest values published by the core tasks so HTTP
// handlers can serve them without touching the bus themselves.
type Status struct {
	monitor *safety.Monitor

	state     *bus.Subscriber[motor.State]
	actuation *bus.Subscriber[control.Vec3]

	mu            sync.RWMutex
	lastState     motor.State
	haveState     bool
	lastActuation control.Vec3
	haveActuation bool
	updatedAt     time.Time
}

func NewStatus(state *bus.Mailbox[motor.State], actuation *bus.Mailbox[control.Vec3], monitor *safety.Monitor) *Status {
	return &Status{
		monitor:   monitor,
		state:     state.Subscribe(),
		actuation: actuation.Subscribe(),
	}
}

// Run consumes state and actuation updates until ctx is canceled.
func (s *Status) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.state.Changed():
			st := s.state.Latest()
			s.mu.Lock()
			s.lastState = st
			s.haveState = true
			s.updatedAt = time.Now().UTC()
			s.mu.Unlock()
		case <-s.actuation.Changed():
			v := s.actuation.Latest()
			s.mu.Lock()
			s.lastActuation = v
			s.haveActuation = true
			s.updatedAt = time.Now().UTC()
			s.mu.Unlock()
		}
	}
}

func (s *Status) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mask := s.monitor.Mask()
	snap := Snapshot{
		Blockers:    mask.String(),
		Armable:     mask.IsEmpty(),
		GeneratedAt: now.UTC().Format(time.RFC3339Nano),
	}
	if s.haveState {
		snap.Phase = s.lastState.Phase.String()
		if s.lastState.Phase == motor.PhaseDisarmed {
			snap.Reason = s.lastState.Reason.String()
		}
		if s.lastState.Phase == motor.PhaseArmedRunning {
			speeds := s.lastState.Speeds
			snap.Speeds = &speeds
		}
	}
	if s.haveActuation {
		snap.Actuation = &vec{
			Roll:  s.lastActuation.X,
			Pitch: s.lastActuation.Y,
			Yaw:   s.lastActuation.Z,
		}
	}
	if !s.updatedAt.IsZero() {
		snap.LastUpdate = s.updatedAt.Format(time.RFC3339Nano)
	}
	return snap
}
