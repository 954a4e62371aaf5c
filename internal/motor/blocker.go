package motor

import "strings"

// ArmBlocker is a bitmask of independent reasons the vehicle may not be
// armed (or, for CmdDisarm, remain armed). Safety monitors own every bit
// except BlockerCmdDisarm, which is the single operator-settable flag.
// The vehicle is armable exactly when the mask is empty.
type ArmBlocker uint16

const (
	// BlockerNoGyrCalib - the gyroscope is not calibrated.
	BlockerNoGyrCalib ArmBlocker = 1 << iota
	// BlockerNoAccCalib - the accelerometer is not calibrated.
	BlockerNoAccCalib
	// BlockerGyrCalibrating - gyroscope calibration is in progress.
	BlockerGyrCalibrating
	// BlockerAccCalibrating - accelerometer calibration is in progress.
	BlockerAccCalibrating
	// BlockerNoGyrData - no gyroscope data available.
	BlockerNoGyrData
	// BlockerNoAccData - no accelerometer data available.
	BlockerNoAccData
	// BlockerHighThrottleCmd - commanded throttle above the allowed limit.
	BlockerHighThrottleCmd
	// BlockerHighAttitudeCmd - commanded attitude above the allowed limit.
	BlockerHighAttitudeCmd
	// BlockerHighAttitude - measured attitude at an abnormally high angle.
	BlockerHighAttitude
	// BlockerBootGrace - arming attempted too soon after boot.
	BlockerBootGrace
	// BlockerSystemLoad - system load too high (low loop frequency).
	BlockerSystemLoad
	// BlockerRxFailsafe - the receiver is in failsafe mode.
	BlockerRxFailsafe
	// BlockerCmdDisarm - the vehicle is commanded to be disarmed. The only
	// flag set directly by the operator, and the only one that can disarm
	// the vehicle at any time.
	BlockerCmdDisarm
)

var blockerNames = []struct {
	flag ArmBlocker
	name string
}{
	{BlockerNoGyrCalib, "no_gyr_calib"},
	{BlockerNoAccCalib, "no_acc_calib"},
	{BlockerGyrCalibrating, "gyr_calibrating"},
	{BlockerAccCalibrating, "acc_calibrating"},
	{BlockerNoGyrData, "no_gyr_data"},
	{BlockerNoAccData, "no_acc_data"},
	{BlockerHighThrottleCmd, "high_throttle_cmd"},
	{BlockerHighAttitudeCmd, "high_attitude_cmd"},
	{BlockerHighAttitude, "high_attitude"},
	{BlockerBootGrace, "boot_grace"},
	{BlockerSystemLoad, "system_load"},
	{BlockerRxFailsafe, "rx_failsafe"},
	{BlockerCmdDisarm, "cmd_disarm"},
}

// IsEmpty reports whether no blocking condition is set, i.e. the vehicle
// is allowed to arm.
func (b ArmBlocker) IsEmpty() bool { return b == 0 }

// Has reports whether every bit of f is set in b.
func (b ArmBlocker) Has(f ArmBlocker) bool { return b&f == f }

// With returns b with the bits of f set.
func (b ArmBlocker) With(f ArmBlocker) ArmBlocker { return b | f }

// Without returns b with the bits of f cleared.
func (b ArmBlocker) Without(f ArmBlocker) ArmBlocker { return b &^ f }

func (b ArmBlocker) String() string {
	if b.IsEmpty() {
		return "none"
	}
	var parts []string
	for _, n := range blockerNames {
		if b.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
