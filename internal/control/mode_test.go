package control

import "testing"

func TestMode_SameKind(t *testing.T) {
	a := Horizon(Vec3{X: 1})
	b := Horizon(Vec3{X: 2})
	c := Acro(Vec3{X: 1})

	// Same kind, different setpoint: an in-mode update.
	if !a.SameKind(b) {
		t.Fatalf("two horizon modes should be the same kind")
	}
	// Same setpoint, different kind: a mode switch.
	if a.SameKind(c) {
		t.Fatalf("horizon and acro must not compare as the same kind")
	}
}

func TestModeKind_String(t *testing.T) {
	if ModeHorizon.String() != "horizon" || ModeAcro.String() != "acro" {
		t.Fatalf("unexpected mode names: %s %s", ModeHorizon, ModeAcro)
	}
}
