package motor

// Driver is the minimal interface the governor needs from an ESC backend.
//
// The governor is the only caller; no other task may command the driver.
// A failed physical response is not detectable at this layer, so callers
// log returned errors and stay on their fixed command schedule rather than
// retrying individual commands.
//
// Close should be best-effort and leave the motors in a safe state.
type Driver interface {
	// ThrottleMinimum commands minimum throttle on all four motors
	// (armed, not spinning).
	ThrottleMinimum() error

	// Throttle commands the given per-motor speeds. Values are already
	// clamped to the configured range by the governor.
	Throttle(speeds [4]int16) error

	// SetDirections configures per-motor spin reversal.
	SetDirections(reverse [4]bool) error

	Close() error
}
