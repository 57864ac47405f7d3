package phone

import (
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
	"rtcphone-go/x/fmtx"
)

// SignalKind is the internal event set the controller understands.
type SignalKind uint8

const (
	ConnectionChanged SignalKind = iota + 1
	AudioChanged
	IncomingRing
	CallActiveChanged
	CallSetupChanged
	CallerID
)

// Signal is a backend event reduced to what the controller needs.
type Signal struct {
	Kind      SignalKind
	Connected bool
	Audio     bool
	Active    bool
	Setup     hfp.CallSetup
	Number    string
}

// Normalize converts a backend event. It reports false for kinds it does
// not know.
func Normalize(ev hfp.Event) (Signal, bool) {
	switch ev.Kind {
	case hfp.EventConnection:
		return Signal{Kind: ConnectionChanged, Connected: ev.Conn == hfp.ConnSLCConnected}, true
	case hfp.EventAudio:
		on := ev.Audio == hfp.AudioConnected || ev.Audio == hfp.AudioConnectedMSBC
		return Signal{Kind: AudioChanged, Audio: on}, true
	case hfp.EventRing:
		return Signal{Kind: IncomingRing}, true
	case hfp.EventCallIndicator:
		return Signal{Kind: CallActiveChanged, Active: ev.Call != 0}, true
	case hfp.EventCallSetup:
		return Signal{Kind: CallSetupChanged, Setup: ev.Setup}, true
	case hfp.EventCallerID:
		return Signal{Kind: CallerID, Number: ev.Number}, true
	}
	return Signal{}, false
}

// Describe renders the console echo for a backend event. Caller-id events
// without a number render as "".
func Describe(ev hfp.Event) string {
	switch ev.Kind {
	case hfp.EventConnection:
		return fmtx.Sprintf("[HFP] conn_state=%d", int(ev.Conn))
	case hfp.EventAudio:
		return fmtx.Sprintf("[HFP] audio_state=%d", int(ev.Audio))
	case hfp.EventRing:
		return "[HFP] incoming ring"
	case hfp.EventCallIndicator:
		return fmtx.Sprintf("[HFP] call=%d", ev.Call)
	case hfp.EventCallSetup:
		return fmtx.Sprintf("[HFP] call_setup=%d", int(ev.Setup))
	case hfp.EventCallerID:
		if ev.Number == "" {
			return ""
		}
		return "[HFP] caller=" + ev.Number
	}
	return ""
}

// apply updates flags for one signal. Callers recompute afterwards.
func apply(f *types.CallFlags, sig Signal) {
	switch sig.Kind {
	case ConnectionChanged:
		f.Connected = sig.Connected
		if !f.Connected {
			f.AudioConnected = false
		}
	case AudioChanged:
		f.AudioConnected = sig.Audio
	case IncomingRing:
		f.CallIncoming = true
	case CallActiveChanged:
		f.CallActive = sig.Active
		clearIdleAudio(f)
	case CallSetupChanged:
		f.CallSetupOutgoing = sig.Setup == hfp.SetupOutgoingDialing || sig.Setup == hfp.SetupOutgoingAlerting
		switch sig.Setup {
		case hfp.SetupIncoming:
			f.CallIncoming = true
		case hfp.SetupIdle:
			f.CallIncoming = false
		}
		clearIdleAudio(f)
	}
}

// Audio has no reason to stay up with no call in progress.
func clearIdleAudio(f *types.CallFlags) {
	if !f.CallActive && !f.CallSetupOutgoing {
		f.AudioConnected = false
	}
}
