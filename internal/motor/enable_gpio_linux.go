//go:build linux && (arm || arm64)

package motor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openEnableLine requests the given BCM GPIO as a digital output via the
// Linux GPIO character device. The line drives the MOSFET switching the
// ESC power rail.
func openEnableLine(pin int) (enableLine, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("motor: invalid gpio pin %d", pin)
	}

	// On Pi, line names are commonly "GPIO18", etc.
	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("quadfc-esc"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodEnableLine{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("motor: gpio line %q not found (or busy)", lineName)
}

type gpiodEnableLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodEnableLine) Set(on bool) error {
	if g == nil || g.line == nil {
		return fmt.Errorf("motor: enable line not initialized")
	}
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *gpiodEnableLine) Close() error {
	if g == nil || g.line == nil {
		return nil
	}
	// Graceful shutdown: cut ESC power.
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
