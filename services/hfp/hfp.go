// Package hfp is the contract between the phone controller and a Bluetooth
// Hands-Free (HF role) implementation. Backends push Events on a channel and
// accept fire-and-forget call-control requests.
package hfp

import (
	"context"
	"strings"

	"rtcphone-go/errcode"
	"rtcphone-go/x/strconvx"
)

// DeviceName is what backends advertise when they get to choose.
const DeviceName = "RTC_BL_PHONE"

// ---- Addresses ----

// Address is a Bluetooth device address, most significant byte first.
type Address [6]byte

// Unset is the boot value; connecting to it is refused.
var Unset Address

func (a Address) IsUnset() bool { return a == Unset }

func (a Address) String() string {
	const hexd = "0123456789ABCDEF"
	buf := make([]byte, 0, 17)
	for i, b := range a {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, hexd[b>>4], hexd[b&0x0F])
	}
	return string(buf)
}

// ParseAddress accepts six colon-separated hex octets, 1 or 2 digits each,
// either case. Surrounding spaces are ignored.
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != len(a) {
		return Unset, errcode.InvalidAddress
	}
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return Unset, errcode.InvalidAddress
		}
		v, err := strconvx.ParseUint(p, 16, 8)
		if err != nil || v > 0xFF {
			return Unset, errcode.InvalidAddress
		}
		a[i] = byte(v)
	}
	return a, nil
}

// ---- Events ----

type EventKind uint8

const (
	EventConnection EventKind = iota + 1
	EventAudio
	EventRing
	EventCallIndicator
	EventCallSetup
	EventCallerID
)

func (k EventKind) String() string {
	switch k {
	case EventConnection:
		return "conn_state"
	case EventAudio:
		return "audio_state"
	case EventRing:
		return "ring"
	case EventCallIndicator:
		return "call"
	case EventCallSetup:
		return "call_setup"
	case EventCallerID:
		return "caller"
	default:
		return "unknown"
	}
}

// ConnState follows the HF client connection states.
type ConnState uint8

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected // RFCOMM up, SLC not yet established
	ConnSLCConnected
	ConnDisconnecting
)

type AudioState uint8

const (
	AudioDisconnected AudioState = iota
	AudioConnecting
	AudioConnected     // CVSD narrowband
	AudioConnectedMSBC // mSBC wideband
)

// CallSetup is the value of the AG's "callsetup" indicator.
type CallSetup uint8

const (
	SetupIdle CallSetup = iota
	SetupIncoming
	SetupOutgoingDialing
	SetupOutgoingAlerting
)

// Event is one backend notification. Only the field matching Kind is set.
type Event struct {
	Kind   EventKind
	Conn   ConnState
	Audio  AudioState
	Call   int // call indicator, 0 = no call
	Setup  CallSetup
	Number string // caller id, may be empty
}

// ---- Backend ----

// VolumeTarget selects speaker or microphone gain.
type VolumeTarget uint8

const (
	VolumeSpeaker VolumeTarget = iota
	VolumeMicrophone
)

// MaxVolume is the top of the HFP gain scale.
const MaxVolume = 15

//go:generate go tool mockgen -source=hfp.go -destination=mock_backend.go -package=hfp

// Backend is the telephony side. Every action only queues a request; its
// outcome arrives later as Events.
type Backend interface {
	// Init brings the stack up. A failure leaves the phone in local-only mode.
	Init(ctx context.Context) error
	Connect(peer Address) error
	Disconnect(peer Address) error
	Answer() error
	Reject() error
	Terminate() error
	Dial(number string) error
	SetVolume(target VolumeTarget, level int) error
	Events() <-chan Event
	Close() error
}
