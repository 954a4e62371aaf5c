package motor

import "fmt"

// enableLine is a digital output switching the ESC power rail.
type enableLine interface {
	Set(on bool) error
	Close() error
}

// EnableGate wraps a Driver with a GPIO line that powers the ESC rail.
// The rail is switched on when the gate is created and off again on Close,
// so a crash or shutdown always leaves the motors unpowered.
type EnableGate struct {
	inner Driver
	line  enableLine
}

func NewEnableGate(inner Driver, pin int) (*EnableGate, error) {
	line, err := openEnableLine(pin)
	if err != nil {
		return nil, err
	}
	if err := line.Set(true); err != nil {
		_ = line.Close()
		return nil, fmt.Errorf("motor: enable rail: %w", err)
	}
	return &EnableGate{inner: inner, line: line}, nil
}

func (g *EnableGate) ThrottleMinimum() error { return g.inner.ThrottleMinimum() }

func (g *EnableGate) Throttle(speeds [4]int16) error { return g.inner.Throttle(speeds) }

func (g *EnableGate) SetDirections(rev [4]bool) error { return g.inner.SetDirections(rev) }

func (g *EnableGate) Close() error {
	err := g.inner.Close()
	if g.line != nil {
		// Power the rail down last, after the ESCs got their final
		// commands.
		if lerr := g.line.Close(); err == nil {
			err = lerr
		}
		g.line = nil
	}
	return err
}
