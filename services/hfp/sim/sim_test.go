package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"rtcphone-go/bus"
	"rtcphone-go/services/hfp"
	"rtcphone-go/services/phone"
	"rtcphone-go/types"
)

func newReady(t *testing.T) *Backend {
	t.Helper()
	b := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func drain(b *Backend) []hfp.Event {
	var out []hfp.Event
	for {
		select {
		case ev := <-b.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestActionsBeforeInit(t *testing.T) {
	b := New(nil)
	if err := b.Connect(hfp.Unset); !errors.Is(err, hfp.ErrNotInitialized) {
		t.Fatalf("Connect = %v", err)
	}
}

func TestConnectSequence(t *testing.T) {
	b := newReady(t)
	if err := b.Dial("1"); !errors.Is(err, hfp.ErrNotConnected) {
		t.Fatalf("Dial before connect = %v", err)
	}
	if err := b.Connect(hfp.Address{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	evs := drain(b)
	if len(evs) != 3 || evs[2].Conn != hfp.ConnSLCConnected {
		t.Fatalf("events %+v", evs)
	}
	// Second connect is a no-op.
	_ = b.Connect(hfp.Address{1, 2, 3, 4, 5, 6})
	if evs := drain(b); len(evs) != 0 {
		t.Fatalf("duplicate connect emitted %+v", evs)
	}
}

func TestRingAnswerHangup(t *testing.T) {
	b := newReady(t)
	_ = b.Connect(hfp.Unset)
	drain(b)

	if err := b.Ring("0611"); err != nil {
		t.Fatal(err)
	}
	evs := drain(b)
	if len(evs) != 3 || evs[0].Setup != hfp.SetupIncoming || evs[1].Kind != hfp.EventRing || evs[2].Number != "0611" {
		t.Fatalf("ring events %+v", evs)
	}
	if err := b.Answer(); err != nil {
		t.Fatal(err)
	}
	if err := b.Answer(); !errors.Is(err, hfp.ErrNoCall) {
		t.Fatalf("second answer = %v", err)
	}
	drain(b)
	if err := b.RemoteHangup(); err != nil {
		t.Fatal(err)
	}
	evs = drain(b)
	if len(evs) != 2 || evs[0].Kind != hfp.EventCallIndicator || evs[0].Call != 0 || evs[1].Audio != hfp.AudioDisconnected {
		t.Fatalf("hangup events %+v", evs)
	}
}

func TestDialRecordsNumberAndVolume(t *testing.T) {
	b := newReady(t)
	_ = b.Connect(hfp.Unset)
	_ = b.Dial("12345")
	_ = b.SetVolume(hfp.VolumeSpeaker, 9)
	if got := b.Dialed(); len(got) != 1 || got[0] != "12345" {
		t.Fatalf("dialed %v", got)
	}
	if b.Volume(hfp.VolumeSpeaker) != 9 {
		t.Fatal("volume not recorded")
	}
	if err := b.RemoteAnswer(); err != nil {
		t.Fatal(err)
	}
	if err := b.RemoteAnswer(); !errors.Is(err, hfp.ErrNoCall) {
		t.Fatalf("RemoteAnswer twice = %v", err)
	}
}

func TestCloseEndsStream(t *testing.T) {
	b := New(nil)
	_ = b.Init(context.Background())
	_ = b.Close()
	if _, ok := <-b.Events(); ok {
		t.Fatal("events still open")
	}
	if err := b.Init(context.Background()); !errors.Is(err, hfp.ErrClosed) {
		t.Fatalf("Init after close = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
}

// pump feeds every queued event to the controller, like the service loop.
func pump(b *Backend, c *phone.Controller) {
	for _, ev := range drain(b) {
		if sig, ok := phone.Normalize(ev); ok {
			c.ApplyCallEvent(sig)
		}
	}
}

func TestControllerWithSimulatedGateway(t *testing.T) {
	b := newReady(t)
	c := phone.NewController(b, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), phone.Hooks{})
	c.SetReady(true)
	c.SetPeer(hfp.Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})

	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	pump(b, c)
	if !c.Flags().Connected {
		t.Fatal("not connected")
	}

	_ = b.Ring("0611")
	pump(b, c)
	c.SetHookStable(true) // lifting answers
	pump(b, c)
	if c.State() != types.StateInCall {
		t.Fatalf("state %s, want IN_CALL", c.State())
	}

	c.SetHookStable(false) // hanging up terminates
	pump(b, c)
	want := types.CallFlags{Connected: true}
	if c.State() != types.StateOnHook || c.Flags() != want {
		t.Fatalf("state %s flags %+v", c.State(), c.Flags())
	}

	c.SetHookStable(true)
	if err := c.Dial("12345"); err != nil {
		t.Fatal(err)
	}
	pump(b, c)
	if c.State() != types.StateDialing {
		t.Fatalf("state %s, want DIALING", c.State())
	}
	_ = b.RemoteAnswer()
	pump(b, c)
	if c.State() != types.StateInCall {
		t.Fatalf("state %s, want IN_CALL", c.State())
	}
}

func TestWithName(t *testing.T) {
	if got := New(nil).Name(); got != hfp.DeviceName {
		t.Fatalf("default name %q", got)
	}
	if got := New(nil, WithName("kitchen")).Name(); got != "kitchen" {
		t.Fatalf("name %q", got)
	}
}

func TestRemoteCommands(t *testing.T) {
	b := newReady(t)
	if rep := b.Remote("ring 0611"); rep.OK || rep.Lines[0] != "[SIM] ring(0611) -> no service level connection" {
		t.Fatalf("ring before connect: %+v", rep)
	}
	_ = b.Connect(hfp.Unset)
	drain(b)

	if rep := b.Remote("ring 0611"); !rep.OK || rep.Lines[0] != "[SIM] ring(0611) -> OK" {
		t.Fatalf("ring: %+v", rep)
	}
	evs := drain(b)
	if len(evs) != 3 || evs[2] != (hfp.Event{Kind: hfp.EventCallerID, Number: "0611"}) {
		t.Fatalf("ring events %+v", evs)
	}
	if rep := b.Remote("hangup"); !rep.OK {
		t.Fatalf("hangup: %+v", rep)
	}
	if rep := b.Remote("answer"); rep.OK || rep.Code != "backend_failed" {
		t.Fatalf("answer without outgoing call: %+v", rep)
	}
	if rep := b.Remote("dance"); rep.Code != "unknown_command" || rep.Lines[0] != RemoteHelp[0] {
		t.Fatalf("unknown: %+v", rep)
	}
}

func TestRemoteOverBus(t *testing.T) {
	b := newReady(t)
	_ = b.Connect(hfp.Unset)
	drain(b)

	bb := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx, bb.NewConnection("sim")); err != nil {
		t.Fatal(err)
	}
	client := bb.NewConnection("far-end")
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	m, err := client.RequestWait(rctx, client.NewMessage(TopicControl, types.CommandLine{Line: "ring"}, false))
	if err != nil {
		t.Fatalf("ring request: %v", err)
	}
	if rep := m.Payload.(types.Reply); !rep.OK || rep.Lines[0] != "[SIM] ring -> OK" {
		t.Fatalf("reply %+v", rep)
	}
	if evs := drain(b); len(evs) != 3 || evs[1].Kind != hfp.EventRing {
		t.Fatalf("events %+v", evs)
	}
}
