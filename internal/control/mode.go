package control

import "fmt"

// ModeKind discriminates what the stabilization setpoint means physically.
type ModeKind uint8

const (
	// ModeHorizon - setpoint is an attitude angle target; the cascaded
	// angle loop runs on top of the rate loop.
	ModeHorizon ModeKind = iota
	// ModeAcro - setpoint is a body-rate target fed directly to the rate
	// loop.
	ModeAcro
)

func (k ModeKind) String() string {
	switch k {
	case ModeHorizon:
		return "horizon"
	case ModeAcro:
		return "acro"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Mode is a tagged stabilization setpoint.
type Mode struct {
	Kind     ModeKind `json:"kind"`
	Setpoint Vec3     `json:"setpoint"`
}

func Horizon(setpoint Vec3) Mode { return Mode{Kind: ModeHorizon, Setpoint: setpoint} }
func Acro(setpoint Vec3) Mode    { return Mode{Kind: ModeAcro, Setpoint: setpoint} }

// SameKind reports whether o is the same kind of setpoint, ignoring the
// vector. A kind change means the cascade's physical meaning changed, as
// opposed to an in-mode setpoint update.
func (m Mode) SameKind(o Mode) bool { return m.Kind == o.Kind }
