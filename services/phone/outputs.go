package phone

import "rtcphone-go/types"

// OutputsFor maps a phone state to the actuator levels. The line feed and
// the indicator are on whenever the handset is lifted; ring only while
// ringing.
func OutputsFor(s types.PhoneState) types.Outputs {
	switch s {
	case types.StateOnHook:
		return types.Outputs{}
	case types.StateRinging:
		return types.Outputs{RingDrive: true, LineEnable: true, Indicator: true}
	default:
		return types.Outputs{LineEnable: true, Indicator: true}
	}
}

// Derive computes the phone state from the hook and the call flags. The
// order of the checks is the precedence: first match wins.
func Derive(offHook bool, f types.CallFlags) types.PhoneState {
	switch {
	case !offHook:
		return types.StateOnHook
	case f.CallIncoming && !f.CallActive:
		return types.StateRinging
	case f.CallSetupOutgoing && !f.CallActive:
		return types.StateDialing
	case f.CallActive:
		return types.StateInCall
	default:
		return types.StateIdle
	}
}
