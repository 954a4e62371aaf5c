package motor

import (
	"fmt"
	"io"
	"sync"
)

// Frame format spoken to the ESC adapter over UART. The adapter translates
// these frames into the physical motor protocol; bit-level pulse encoding
// never happens on this side of the wire.
//
//	byte 0    sync (0xA5)
//	byte 1    opcode
//	bytes 2-9 payload (four big-endian int16 values, or flags)
//	byte 10   XOR of bytes 1..9
const (
	frameSync = 0xA5

	opThrottle    = 0x01
	opThrottleMin = 0x02
	opDirections  = 0x03
)

// SerialDriver speaks the adapter frame protocol over an already-open
// serial port.
type SerialDriver struct {
	mu   sync.Mutex
	port io.WriteCloser
}

// NewSerialDriver opens the serial device and returns a driver bound to
// it. Only available on Linux; other platforms get an error.
func NewSerialDriver(device string, baud int) (*SerialDriver, error) {
	port, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("motor: open serial %s: %w", device, err)
	}
	return &SerialDriver{port: port}, nil
}

func (d *SerialDriver) ThrottleMinimum() error {
	return d.send(opThrottleMin, [8]byte{})
}

func (d *SerialDriver) Throttle(speeds [4]int16) error {
	var payload [8]byte
	for i, v := range speeds {
		payload[2*i] = byte(uint16(v) >> 8)
		payload[2*i+1] = byte(uint16(v))
	}
	return d.send(opThrottle, payload)
}

func (d *SerialDriver) SetDirections(reverse [4]bool) error {
	var payload [8]byte
	for i, r := range reverse {
		if r {
			payload[i] = 1
		}
	}
	return d.send(opDirections, payload)
}

func (d *SerialDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

func (d *SerialDriver) send(opcode byte, payload [8]byte) error {
	frame := make([]byte, 11)
	frame[0] = frameSync
	frame[1] = opcode
	copy(frame[2:10], payload[:])
	var sum byte
	for _, b := range frame[1:10] {
		sum ^= b
	}
	frame[10] = sum

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return fmt.Errorf("motor: serial driver closed")
	}
	if _, err := d.port.Write(frame); err != nil {
		return fmt.Errorf("motor: serial write: %w", err)
	}
	return nil
}

// NopDriver discards every command. Used when no ESC hardware is attached
// (simulation, bench runs).
type NopDriver struct{}

func (NopDriver) ThrottleMinimum() error      { return nil }
func (NopDriver) Throttle([4]int16) error     { return nil }
func (NopDriver) SetDirections([4]bool) error { return nil }
func (NopDriver) Close() error                { return nil }
