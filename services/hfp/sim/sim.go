// Package sim is an in-process audio gateway. It answers call-control
// requests with the event sequence a phone would send. The far end
// (incoming calls, remote answer and hangup) is driven from Go or over the
// bus on TopicControl.
package sim

import (
	"context"
	"log/slog"
	"sync"

	"rtcphone-go/services/hfp"
)

const eventQueue = 64

// Option configures a Backend.
type Option func(*Backend)

// WithName sets the name the gateway reports for this handset.
func WithName(name string) Option {
	return func(b *Backend) {
		if name != "" {
			b.name = name
		}
	}
}

// Backend implements hfp.Backend without a radio.
type Backend struct {
	log    *slog.Logger
	name   string
	events chan hfp.Event

	mu       sync.Mutex
	ready    bool
	closed   bool
	peer     hfp.Address
	slc      bool
	audio    bool
	active   bool
	incoming bool
	outgoing bool
	dialed   []string
	volume   [2]int
}

func New(log *slog.Logger, opts ...Option) *Backend {
	if log == nil {
		log = slog.Default()
	}
	b := &Backend{
		log:    log.With("backend", "sim"),
		name:   hfp.DeviceName,
		events: make(chan hfp.Event, eventQueue),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Name is the handset name the gateway sees.
func (b *Backend) Name() string { return b.name }

func (b *Backend) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return hfp.ErrClosed
	}
	b.ready = true
	b.log.Info("simulated gateway ready", "name", b.name)
	return nil
}

func (b *Backend) Events() <-chan hfp.Event { return b.events }

func (b *Backend) Connect(peer hfp.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usableLocked(); err != nil {
		return err
	}
	if b.slc {
		return nil
	}
	b.peer = peer
	b.slc = true
	b.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnConnecting})
	b.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnConnected})
	b.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnSLCConnected})
	return nil
}

func (b *Backend) Disconnect(hfp.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.usableLocked(); err != nil {
		return err
	}
	if !b.slc {
		return nil
	}
	b.dropCallLocked()
	b.slc = false
	b.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnecting})
	b.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnected})
	return nil
}

func (b *Backend) Answer() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	if !b.incoming || b.active {
		return hfp.ErrNoCall
	}
	b.incoming = false
	b.active = true
	b.emit(hfp.Event{Kind: hfp.EventCallIndicator, Call: 1})
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupIdle})
	b.audioOnLocked()
	return nil
}

func (b *Backend) Reject() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	if !b.incoming {
		return hfp.ErrNoCall
	}
	b.incoming = false
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupIdle})
	return nil
}

func (b *Backend) Terminate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	if !b.active && !b.outgoing && !b.incoming {
		return hfp.ErrNoCall
	}
	b.dropCallLocked()
	return nil
}

func (b *Backend) Dial(number string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	b.dialed = append(b.dialed, number)
	b.outgoing = true
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupOutgoingDialing})
	b.audioOnLocked()
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupOutgoingAlerting})
	return nil
}

func (b *Backend) SetVolume(target hfp.VolumeTarget, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	if int(target) < len(b.volume) {
		b.volume[target] = level
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.ready = false
	close(b.events)
	return nil
}

// ---- remote side ----

// Ring simulates an incoming call. An empty number withholds caller id.
func (b *Backend) Ring(number string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	b.incoming = true
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupIncoming})
	b.emit(hfp.Event{Kind: hfp.EventRing})
	b.emit(hfp.Event{Kind: hfp.EventCallerID, Number: number})
	return nil
}

// RemoteAnswer simulates the far end picking up an outgoing call.
func (b *Backend) RemoteAnswer() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	if !b.outgoing {
		return hfp.ErrNoCall
	}
	b.outgoing = false
	b.active = true
	b.emit(hfp.Event{Kind: hfp.EventCallIndicator, Call: 1})
	b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupIdle})
	return nil
}

// RemoteHangup simulates the far end ending whatever call is in progress.
func (b *Backend) RemoteHangup() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.linkedLocked(); err != nil {
		return err
	}
	b.dropCallLocked()
	return nil
}

// Dialed returns the numbers dialed so far.
func (b *Backend) Dialed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.dialed...)
}

// Volume returns the last level set for target.
func (b *Backend) Volume(target hfp.VolumeTarget) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(target) >= len(b.volume) {
		return 0
	}
	return b.volume[target]
}

// ---- internals ----

func (b *Backend) usableLocked() error {
	if b.closed {
		return hfp.ErrClosed
	}
	if !b.ready {
		return hfp.ErrNotInitialized
	}
	return nil
}

func (b *Backend) linkedLocked() error {
	if err := b.usableLocked(); err != nil {
		return err
	}
	if !b.slc {
		return hfp.ErrNotConnected
	}
	return nil
}

func (b *Backend) audioOnLocked() {
	if b.audio {
		return
	}
	b.audio = true
	b.emit(hfp.Event{Kind: hfp.EventAudio, Audio: hfp.AudioConnected})
}

func (b *Backend) dropCallLocked() {
	if b.active {
		b.active = false
		b.emit(hfp.Event{Kind: hfp.EventCallIndicator, Call: 0})
	}
	if b.incoming || b.outgoing {
		b.incoming, b.outgoing = false, false
		b.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.SetupIdle})
	}
	if b.audio {
		b.audio = false
		b.emit(hfp.Event{Kind: hfp.EventAudio, Audio: hfp.AudioDisconnected})
	}
}

// emit never blocks; a consumer that stops draining loses events.
func (b *Backend) emit(ev hfp.Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Warn("event dropped", "kind", ev.Kind.String())
	}
}
