package motor

import "fmt"

// DisarmReason explains why the motors are disarmed.
type DisarmReason uint8

const (
	// DisarmNotInitialized - process start, no arming attempted yet.
	DisarmNotInitialized DisarmReason = iota
	// DisarmFault - a blocking condition appeared during the arming ramp.
	DisarmFault
	// DisarmCommanded - explicit disarm flag set by the operator.
	DisarmCommanded
	// DisarmTimeout - no fresh command or blocker update while armed.
	DisarmTimeout
)

func (r DisarmReason) String() string {
	switch r {
	case DisarmNotInitialized:
		return "not_initialized"
	case DisarmFault:
		return "fault"
	case DisarmCommanded:
		return "commanded"
	case DisarmTimeout:
		return "timeout"
	}
	return fmt.Sprintf("unknown(%d)", uint8(r))
}

// Phase is the coarse motor lifecycle position.
type Phase uint8

const (
	PhaseDisarmed Phase = iota
	PhaseArming
	PhaseArmedIdle
	PhaseArmedRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseDisarmed:
		return "disarmed"
	case PhaseArming:
		return "arming"
	case PhaseArmedIdle:
		return "armed_idle"
	case PhaseArmedRunning:
		return "armed_running"
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// State is the externally observable motor state. It is produced
// exclusively by the Governor. Reason is meaningful only in PhaseDisarmed
// and Speeds only in PhaseArmedRunning.
type State struct {
	Phase  Phase        `json:"phase"`
	Reason DisarmReason `json:"reason,omitempty"`
	Speeds [4]int16     `json:"speeds,omitempty"`
}

func Disarmed(r DisarmReason) State { return State{Phase: PhaseDisarmed, Reason: r} }
func Arming() State                 { return State{Phase: PhaseArming} }
func ArmedIdle() State              { return State{Phase: PhaseArmedIdle} }
func ArmedRunning(speeds [4]int16) State {
	return State{Phase: PhaseArmedRunning, Speeds: speeds}
}

// Armed reports whether the motors accept speed commands.
func (s State) Armed() bool {
	return s.Phase == PhaseArmedIdle || s.Phase == PhaseArmedRunning
}

func (s State) String() string {
	switch s.Phase {
	case PhaseDisarmed:
		return fmt.Sprintf("disarmed(%s)", s.Reason)
	case PhaseArmedRunning:
		return fmt.Sprintf("armed_running(%d,%d,%d,%d)",
			s.Speeds[0], s.Speeds[1], s.Speeds[2], s.Speeds[3])
	}
	return s.Phase.String()
}
