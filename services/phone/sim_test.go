package phone

import (
	"context"
	"testing"
	"time"

	"rtcphone-go/bus"
	"rtcphone-go/services/hfp"
	"rtcphone-go/services/hfp/sim"
	"rtcphone-go/types"
)

// Drives the service against the simulated gateway, with the far end
// controlled over the bus the way the console does it.
func TestService_IncomingCallWithSimulatedGateway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(64)
	gw := sim.New(quietLogger())
	if err := gw.Start(ctx, b.NewConnection("sim")); err != nil {
		t.Fatal(err)
	}
	peer, _ := hfp.ParseAddress("01:02:03:04:05:06")
	hook, out := &fakeHook{}, &recordOut{}
	svc := New(Config{Peer: peer}, hook, out, gw, b.NewConnection("phone"), quietLogger())
	var clock uint32
	svc.now = func() uint32 { return clock }
	cmds := svc.conn.Subscribe(TopicCmd)
	events := gw.Events()
	tick := func(ms uint32) {
		clock += ms
		events = svc.step(events, cmds)
	}

	svc.boot(ctx)
	if !svc.Controller().Ready() {
		t.Fatal("simulated gateway not ready")
	}

	client := b.NewConnection("operator")
	client.Publish(client.NewMessage(TopicCmd, types.CommandLine{Line: "b"}, false))
	tick(10) // command
	tick(10) // connection events
	if !svc.Controller().Flags().Connected {
		t.Fatalf("not connected: %+v", svc.Controller().Flags())
	}

	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	m, err := client.RequestWait(rctx, client.NewMessage(sim.TopicControl, types.CommandLine{Line: "ring 0611"}, false))
	if err != nil {
		t.Fatalf("ring: %v", err)
	}
	if rep := m.Payload.(types.Reply); !rep.OK {
		t.Fatalf("ring reply %+v", rep)
	}
	tick(10)
	if f := svc.Controller().Flags(); !f.CallIncoming {
		t.Fatalf("no incoming call: %+v", f)
	}
	if svc.Controller().State() != types.StateOnHook {
		t.Fatalf("state %s, want ON_HOOK while the handset is down", svc.Controller().State())
	}

	hook.off.Store(true)
	tick(30) // hook accepted, answer sent
	tick(10) // gateway reports the active call
	if svc.Controller().State() != types.StateInCall {
		t.Fatalf("state %s after lift, want IN_CALL", svc.Controller().State())
	}
	if out.last() != (types.Outputs{LineEnable: true, Indicator: true}) {
		t.Fatalf("outputs %+v", out.last())
	}

	hook.off.Store(false)
	tick(30) // hook accepted, terminate sent
	tick(10) // gateway reports the call gone
	if svc.Controller().State() != types.StateOnHook {
		t.Fatalf("state %s after hang up, want ON_HOOK", svc.Controller().State())
	}
	if out.last() != (types.Outputs{}) {
		t.Fatalf("outputs %+v after hang up", out.last())
	}
	if f := svc.Controller().Flags(); f.CallActive || f.CallIncoming || !f.Connected {
		t.Fatalf("flags after hang up %+v", f)
	}
}
