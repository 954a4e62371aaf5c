package telemetry

import (
	"encoding/json"
	"time"

	"quadfc/internal/control"
	"quadfc/internal/motor"
)

type stateMsg struct {
	Phase  string    `json:"phase"`
	Reason string    `json:"reason,omitempty"`
	Speeds *[4]int16 `json:"speeds,omitempty"`
	Time   string    `json:"time"`
}

type actuationMsg struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Time  string  `json:"time"`
}

func encodeState(st motor.State, now time.Time) []byte {
	msg := stateMsg{
		Phase: st.Phase.String(),
		Time:  now.UTC().Format(time.RFC3339Nano),
	}
	if st.Phase == motor.PhaseDisarmed {
		msg.Reason = st.Reason.String()
	}
	if st.Phase == motor.PhaseArmedRunning {
		speeds := st.Speeds
		msg.Speeds = &speeds
	}
	b, _ := json.Marshal(msg)
	return b
}

func encodeActuation(v control.Vec3, now time.Time) []byte {
	b, _ := json.Marshal(actuationMsg{
		Roll:  v.X,
		Pitch: v.Y,
		Yaw:   v.Z,
		Time:  now.UTC().Format(time.RFC3339Nano),
	})
	return b
}
