package phone

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/mock/gomock"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
)

type recordOut struct{ got []types.Outputs }

func (r *recordOut) Apply(o types.Outputs) { r.got = append(r.got, o) }

func (r *recordOut) last() types.Outputs {
	if len(r.got) == 0 {
		return types.Outputs{}
	}
	return r.got[len(r.got)-1]
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestController(t *testing.T, hooks Hooks) (*Controller, *hfp.MockBackend, *recordOut) {
	t.Helper()
	be := hfp.NewMockBackend(gomock.NewController(t))
	out := &recordOut{}
	return NewController(be, out, quietLogger(), hooks), be, out
}

func connect(c *Controller) {
	c.SetReady(true)
	c.ApplyCallEvent(Signal{Kind: ConnectionChanged, Connected: true})
}

func TestController_StartsOnHookWithoutWriting(t *testing.T) {
	c, _, out := newTestController(t, Hooks{})
	if c.State() != types.StateOnHook || c.OffHook() {
		t.Fatalf("initial state %s offHook=%v", c.State(), c.OffHook())
	}
	c.Recompute()
	if len(out.got) != 0 {
		t.Fatalf("outputs written without a change: %+v", out.got)
	}
}

func TestController_ScenarioLiftHandset(t *testing.T) {
	c, _, out := newTestController(t, Hooks{})
	c.SetHookStable(true)
	if c.State() != types.StateIdle {
		t.Fatalf("state %s, want IDLE", c.State())
	}
	if out.last() != (types.Outputs{LineEnable: true, Indicator: true}) {
		t.Fatalf("outputs %+v", out.last())
	}
}

func TestController_ScenarioIncomingThenActive(t *testing.T) {
	c, _, out := newTestController(t, Hooks{})
	c.SetHookStable(true)

	c.ApplyCallEvent(Signal{Kind: IncomingRing})
	if c.State() != types.StateRinging || !out.last().RingDrive {
		t.Fatalf("state %s outputs %+v", c.State(), out.last())
	}
	c.ApplyCallEvent(Signal{Kind: CallActiveChanged, Active: true})
	if c.State() != types.StateInCall {
		t.Fatalf("state %s, want IN_CALL", c.State())
	}
	if !c.Flags().CallIncoming {
		t.Fatal("incoming should still be set")
	}
	if out.last().RingDrive {
		t.Fatal("ring still driven in call")
	}
}

func TestController_ScenarioHangUpInCall(t *testing.T) {
	c, be, _ := newTestController(t, Hooks{})
	connect(c)
	c.SetHookStable(true)
	c.ApplyCallEvent(Signal{Kind: CallActiveChanged, Active: true})

	be.EXPECT().Terminate().Return(nil).Times(1)
	c.SetHookStable(false)
	if c.State() != types.StateOnHook {
		t.Fatalf("state %s, want ON_HOOK", c.State())
	}

	// AG reports the end of the call.
	c.ApplyCallEvent(Signal{Kind: CallActiveChanged})
	c.ApplyCallEvent(Signal{Kind: ConnectionChanged})
	if c.State() != types.StateOnHook || c.Flags() != (types.CallFlags{}) {
		t.Fatalf("state %s flags %+v", c.State(), c.Flags())
	}
}

func TestController_HookActions(t *testing.T) {
	t.Run("on-hook while dialing terminates", func(t *testing.T) {
		c, be, _ := newTestController(t, Hooks{})
		c.SetHookStable(true)
		c.ApplyCallEvent(Signal{Kind: CallSetupChanged, Setup: hfp.SetupOutgoingDialing})
		be.EXPECT().Terminate().Return(nil)
		c.SetHookStable(false)
	})
	t.Run("on-hook while ringing rejects", func(t *testing.T) {
		c, be, _ := newTestController(t, Hooks{})
		c.SetHookStable(true)
		c.ApplyCallEvent(Signal{Kind: IncomingRing})
		be.EXPECT().Reject().Return(nil)
		c.SetHookStable(false)
	})
	t.Run("lift while ringing answers", func(t *testing.T) {
		c, be, _ := newTestController(t, Hooks{})
		c.ApplyCallEvent(Signal{Kind: CallSetupChanged, Setup: hfp.SetupIncoming})
		be.EXPECT().Answer().Return(nil)
		c.SetHookStable(true)
		if c.State() != types.StateRinging {
			t.Fatalf("state %s, want RINGING until the AG reports the call", c.State())
		}
	})
	t.Run("idle transitions issue nothing", func(t *testing.T) {
		c, _, _ := newTestController(t, Hooks{})
		c.SetHookStable(true)
		c.SetHookStable(false)
		c.SetHookStable(false)
	})
	t.Run("repeated level is ignored", func(t *testing.T) {
		c, be, _ := newTestController(t, Hooks{})
		c.SetHookStable(true)
		c.ApplyCallEvent(Signal{Kind: CallActiveChanged, Active: true})
		be.EXPECT().Terminate().Return(nil).Times(1)
		c.SetHookStable(false)
		c.SetHookStable(false)
	})
}

func TestController_HookActionFailureReported(t *testing.T) {
	var got []Action
	c, be, _ := newTestController(t, Hooks{OnAction: func(a Action) { got = append(got, a) }})
	c.SetHookStable(true)
	c.ApplyCallEvent(Signal{Kind: IncomingRing})

	be.EXPECT().Reject().Return(errors.New("link down"))
	c.SetHookStable(false)

	if len(got) != 1 || got[0].Op != "reject" || got[0].Source != SourceHook {
		t.Fatalf("actions %+v", got)
	}
	if errcode.Of(got[0].Err) != errcode.BackendFailed {
		t.Fatalf("err %v, want backend_failed", got[0].Err)
	}
	if c.State() != types.StateOnHook {
		t.Fatal("failure must not block the hook transition")
	}
}

func TestController_ObserversSeeTransitions(t *testing.T) {
	var hooks []bool
	var states []types.PhoneState
	c, be, _ := newTestController(t, Hooks{
		OnHook:  func(off bool) { hooks = append(hooks, off) },
		OnState: func(_ types.PhoneState, st types.PhoneStatus) { states = append(states, st.State) },
	})
	c.SetHookStable(true)
	c.ApplyCallEvent(Signal{Kind: IncomingRing})
	c.ApplyCallEvent(Signal{Kind: IncomingRing})
	// Hanging up on a ringing line rejects it, once.
	be.EXPECT().Reject().Return(nil).Times(1)
	c.SetHookStable(false)

	if len(hooks) != 2 || !hooks[0] || hooks[1] {
		t.Fatalf("hooks %v", hooks)
	}
	want := []types.PhoneState{types.StateIdle, types.StateRinging, types.StateOnHook}
	if len(states) != len(want) {
		t.Fatalf("states %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states %v, want %v", states, want)
		}
	}
}

func TestController_CommandPreconditions(t *testing.T) {
	c, _, _ := newTestController(t, Hooks{})

	if err := c.Connect(); err != errcode.BackendNotReady {
		t.Fatalf("Connect before init = %v", err)
	}
	if err := c.Disconnect(); err != errcode.BackendNotReady {
		t.Fatalf("Disconnect before init = %v", err)
	}
	c.SetReady(true)
	if err := c.Connect(); err != errcode.PeerNotConfigured {
		t.Fatalf("Connect without peer = %v", err)
	}
	if err := c.Answer(); err != errcode.NoIncomingCall {
		t.Fatalf("Answer = %v", err)
	}
	if _, err := c.End(); err != errcode.NotConnected {
		t.Fatalf("End = %v", err)
	}
	if err := c.Dial("123"); err != errcode.NotConnected {
		t.Fatalf("Dial = %v", err)
	}
	if _, err := c.SetVolume(3); err != errcode.NotConnected {
		t.Fatalf("SetVolume = %v", err)
	}
}

func TestController_DialOnce(t *testing.T) {
	c, be, _ := newTestController(t, Hooks{})
	connect(c)

	if err := c.Dial(""); err != errcode.EmptyNumber {
		t.Fatalf("Dial(\"\") = %v", err)
	}
	be.EXPECT().Dial("12345").Return(nil).Times(1)
	if err := c.Dial("12345"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
}

func TestController_ConnectUsesPeer(t *testing.T) {
	c, be, _ := newTestController(t, Hooks{})
	c.SetReady(true)
	a, _ := hfp.ParseAddress("AA:BB:CC:DD:EE:01")
	c.SetPeer(a)

	be.EXPECT().Connect(a).Return(nil)
	if err := c.Connect(); err != nil {
		t.Fatal(err)
	}
	be.EXPECT().Disconnect(a).Return(nil)
	if err := c.Disconnect(); err != nil {
		t.Fatal(err)
	}
}

func TestController_EndPicksRejectOrTerminate(t *testing.T) {
	c, be, _ := newTestController(t, Hooks{})
	connect(c)
	c.ApplyCallEvent(Signal{Kind: IncomingRing})

	be.EXPECT().Reject().Return(nil)
	if op, err := c.End(); err != nil || op != "reject" {
		t.Fatalf("End = %q,%v", op, err)
	}

	c.ApplyCallEvent(Signal{Kind: CallActiveChanged, Active: true})
	be.EXPECT().Terminate().Return(nil)
	if op, err := c.End(); err != nil || op != "terminate" {
		t.Fatalf("End = %q,%v", op, err)
	}
}

func TestController_VolumeClamped(t *testing.T) {
	c, be, _ := newTestController(t, Hooks{})
	connect(c)

	gomock.InOrder(
		be.EXPECT().SetVolume(hfp.VolumeSpeaker, 15).Return(nil),
		be.EXPECT().SetVolume(hfp.VolumeSpeaker, 0).Return(nil),
		be.EXPECT().SetVolume(hfp.VolumeSpeaker, 7).Return(nil),
	)
	for _, c2 := range []struct{ in, want int }{{40, 15}, {-3, 0}, {7, 7}} {
		v, err := c.SetVolume(c2.in)
		if err != nil || v != c2.want {
			t.Fatalf("SetVolume(%d) = %d,%v want %d", c2.in, v, err, c2.want)
		}
	}
}

func TestController_UnavailableBackendKeepsCode(t *testing.T) {
	c := NewController(hfp.Unavailable{Reason: "no classic bt"}, nil, quietLogger(), Hooks{})
	connect(c)
	err := c.Dial("1")
	if errcode.Of(err) != errcode.BackendUnavailable {
		t.Fatalf("err %v, want backend_unavailable", err)
	}
}
