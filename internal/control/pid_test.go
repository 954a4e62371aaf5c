package control

import (
	"math"
	"testing"
)

func TestPID_Proportional(t *testing.T) {
	p := NewPID(2, 0, 0, 0.01)
	if out := p.Update(1.5); out != 3 {
		t.Fatalf("out=%v want 3", out)
	}
}

func TestPID_IntegralAccumulatesAndResets(t *testing.T) {
	p := NewPID(0, 1, 0, 0.1)

	out := p.Update(1)
	if math.Abs(out-0.1) > 1e-12 {
		t.Fatalf("out=%v want 0.1", out)
	}
	out = p.Update(1)
	if math.Abs(out-0.2) > 1e-12 {
		t.Fatalf("out=%v want 0.2", out)
	}

	p.ResetIntegral()
	if out := p.Update(0); out != 0 {
		t.Fatalf("out after reset=%v want 0", out)
	}
}

func TestPID_DerivativeNeedsTwoSamples(t *testing.T) {
	p := NewPID(0, 0, 1, 0.1)

	// No previous error: derivative contributes nothing.
	if out := p.Update(1); out != 0 {
		t.Fatalf("first out=%v want 0", out)
	}
	// d(err)/dt = (2-1)/0.1
	out := p.Update(2)
	if math.Abs(out-10) > 1e-12 {
		t.Fatalf("out=%v want 10", out)
	}
}

func TestPID_DerivativeFilterSmooths(t *testing.T) {
	raw := NewPID(0, 0, 1, 0.01)
	filt := NewPID(0, 0, 1, 0.01).WithDerivativeFilter(0.05)

	raw.Update(0)
	filt.Update(0)

	// A step in error produces a large raw derivative; the filtered
	// controller must respond with a strictly smaller magnitude.
	rawOut := raw.Update(1)
	filtOut := filt.Update(1)
	if filtOut <= 0 || filtOut >= rawOut {
		t.Fatalf("filtered=%v raw=%v want 0 < filtered < raw", filtOut, rawOut)
	}
}

func TestPID_CircularErrorShortestPath(t *testing.T) {
	cases := []struct {
		name    string
		err     float64
		wantAbs float64
	}{
		{"wraparound_positive", 2*math.Pi - 0.2, 0.2},
		{"wraparound_negative", -(2*math.Pi - 0.2), 0.2},
		{"small_positive", 0.3, 0.3},
		{"small_negative", -0.3, 0.3},
		{"full_turn", 2 * math.Pi, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPID(1, 0, 0, 0.01).WithCircular(-math.Pi, math.Pi)
			out := p.Update(tc.err)
			if math.Abs(math.Abs(out)-tc.wantAbs) > 1e-9 {
				t.Fatalf("Update(%v)=%v want |out|=%v", tc.err, out, tc.wantAbs)
			}
			if math.Abs(out) > math.Pi {
				t.Fatalf("wrapped error %v outside [-pi, pi]", out)
			}
		})
	}
}

func TestPID_CircularNearWrapBoundary(t *testing.T) {
	// setpoint just below +pi, measurement just above -pi: the naive
	// difference is nearly a full turn, the real error is 0.2.
	setpoint := math.Pi - 0.1
	measured := -math.Pi + 0.1

	p := NewPID(1, 0, 0, 0.01).WithCircular(-math.Pi, math.Pi)
	out := p.Update(setpoint - measured)
	if math.Abs(math.Abs(out)-0.2) > 1e-9 {
		t.Fatalf("out=%v want magnitude 0.2", out)
	}
}
