package control

import "math"

// PID is a single-axis proportional-integral-derivative controller running
// at a fixed update period.
//
// The integral term persists across cycles until ResetIntegral is called.
// On a circular axis (yaw) the error is wrapped to the shortest signed
// angular distance, so a setpoint just below +pi against a measurement just
// above -pi yields a small error rather than nearly a full turn.
//
// Not safe for concurrent use.
type PID struct {
	kp, ki, kd float64
	dt         float64

	integral float64
	prevErr  float64
	havePrev bool

	// Derivative low-pass filter; tau <= 0 disables it.
	filterTau float64
	filtered  float64
	haveFilt  bool

	circular bool
	wrapLo   float64
	wrapHi   float64
}

// NewPID returns a controller with the given gains and update period in
// seconds.
func NewPID(kp, ki, kd, dt float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd, dt: dt}
}

// WithDerivativeFilter enables a first-order low-pass on the derivative
// term with the given time constant in seconds. Used on inner-loop axes to
// keep the derivative from amplifying sensor noise.
func (p *PID) WithDerivativeFilter(tau float64) *PID {
	p.filterTau = tau
	return p
}

// WithCircular treats the error as living on the wraparound domain
// [lo, hi), e.g. [-pi, pi) for yaw.
func (p *PID) WithCircular(lo, hi float64) *PID {
	p.circular = true
	p.wrapLo = lo
	p.wrapHi = hi
	return p
}

// Update advances the controller by one period and returns the new output.
func (p *PID) Update(err float64) float64 {
	if p.circular {
		err = wrap(err, p.wrapLo, p.wrapHi)
	}

	p.integral += err * p.dt

	derivative := 0.0
	if p.havePrev {
		derivative = (err - p.prevErr) / p.dt
	}
	p.prevErr = err
	p.havePrev = true

	if p.filterTau > 0 {
		if !p.haveFilt {
			p.filtered = derivative
			p.haveFilt = true
		} else {
			alpha := p.dt / (p.filterTau + p.dt)
			p.filtered += alpha * (derivative - p.filtered)
		}
		derivative = p.filtered
	}

	return p.kp*err + p.ki*p.integral + p.kd*derivative
}

// ResetIntegral zeroes the accumulated integral term. Other state is kept.
func (p *PID) ResetIntegral() {
	p.integral = 0
}

// wrap maps v into [lo, hi) by shifting whole spans.
func wrap(v, lo, hi float64) float64 {
	span := hi - lo
	v = math.Mod(v-lo, span)
	if v < 0 {
		v += span
	}
	return v + lo
}
