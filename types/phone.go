package types

// ------------------------
// Phone state
// ------------------------

// PhoneState is the single authoritative state of the handset.
type PhoneState uint8

const (
	StateOnHook PhoneState = iota
	StateIdle
	StateRinging
	StateDialing
	StateInCall
)

func (s PhoneState) String() string {
	switch s {
	case StateOnHook:
		return "ON_HOOK"
	case StateIdle:
		return "IDLE"
	case StateRinging:
		return "RINGING"
	case StateDialing:
		return "DIALING"
	case StateInCall:
		return "IN_CALL"
	default:
		return "UNKNOWN"
	}
}

func (s PhoneState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// CallFlags mirror what the telephony backend has told us.
type CallFlags struct {
	Connected         bool `json:"connected"`           // service level connection up
	AudioConnected    bool `json:"audio_connected"`     // voice path up
	CallActive        bool `json:"call_active"`         // talking
	CallIncoming      bool `json:"call_incoming"`       // unanswered inbound call
	CallSetupOutgoing bool `json:"call_setup_outgoing"` // dialing or alerting
}

// Outputs are the three actuator levels, true = driven/on.
type Outputs struct {
	RingDrive  bool `json:"ring_drive"`
	LineEnable bool `json:"line_enable"`
	Indicator  bool `json:"indicator"`
}

// HookName renders the hook flag the way the console prints it.
func HookName(offHook bool) string {
	if offHook {
		return "OFF_HOOK"
	}
	return "ON_HOOK"
}

// ------------------------
// Bus payloads
// ------------------------

// PhoneStatus is retained on "phone/state".
type PhoneStatus struct {
	OffHook bool       `json:"off_hook"`
	State   PhoneState `json:"state"`
	Ready   bool       `json:"ready"` // telephony backend initialised
	Flags   CallFlags  `json:"flags"`
	Peer    string     `json:"peer"`
	TS      int64      `json:"ts_ms"`
}

// HookValue is retained on "phone/hook".
type HookValue struct {
	OffHook bool  `json:"off_hook"`
	TS      int64 `json:"ts_ms"`
}

// CallerID is published on "phone/event/caller".
type CallerID struct {
	Number string `json:"number"`
	TS     int64  `json:"ts_ms"`
}

// CommandLine is one operator line sent on "phone/cmd".
type CommandLine struct {
	Line string `json:"line"`
}

// Reply carries the operator-visible lines produced by a command.
type Reply struct {
	OK    bool     `json:"ok"`
	Code  string   `json:"code,omitempty"`
	Lines []string `json:"lines"`
}

// Notice is an unsolicited console line (state changes, backend echoes).
type Notice struct {
	Text string `json:"text"`
}
