package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"quadfc/internal/control"
	"quadfc/internal/motor"
)

func TestEncodeState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		state motor.State
		check func(t *testing.T, m map[string]any)
	}{
		{
			"disarmed_carries_reason",
			motor.Disarmed(motor.DisarmTimeout),
			func(t *testing.T, m map[string]any) {
				if m["phase"] != "disarmed" || m["reason"] != "timeout" {
					t.Fatalf("got %v", m)
				}
				if _, ok := m["speeds"]; ok {
					t.Fatalf("disarmed must not carry speeds: %v", m)
				}
			},
		},
		{
			"idle_has_no_speeds",
			motor.ArmedIdle(),
			func(t *testing.T, m map[string]any) {
				if m["phase"] != "armed_idle" {
					t.Fatalf("got %v", m)
				}
				if _, ok := m["speeds"]; ok {
					t.Fatalf("idle must not carry speeds: %v", m)
				}
			},
		},
		{
			"running_carries_speeds",
			motor.ArmedRunning([4]int16{10, 20, 30, 40}),
			func(t *testing.T, m map[string]any) {
				speeds, ok := m["speeds"].([]any)
				if !ok || len(speeds) != 4 || speeds[0].(float64) != 10 {
					t.Fatalf("got %v", m)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m map[string]any
			if err := json.Unmarshal(encodeState(tc.state, now), &m); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if m["time"] == "" {
				t.Fatalf("missing time: %v", m)
			}
			tc.check(t, m)
		})
	}
}

func TestEncodeActuation(t *testing.T) {
	b := encodeActuation(control.Vec3{X: 0.1, Y: -0.2, Z: 0.3}, time.Now())

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["roll"].(float64) != 0.1 || m["pitch"].(float64) != -0.2 || m["yaw"].(float64) != 0.3 {
		t.Fatalf("got %v", m)
	}
}
