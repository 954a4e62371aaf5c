//go:build !linux || (!arm && !arm64)

package motor

import "fmt"

// Stub implementation for non-Linux and/or non-ARM platforms.
func openEnableLine(pin int) (enableLine, error) {
	return nil, fmt.Errorf("motor: gpio enable line unsupported on this platform")
}
