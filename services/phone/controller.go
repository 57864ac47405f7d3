package phone

import (
	"log/slog"
	"sync"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
	"rtcphone-go/x/mathx"
	"rtcphone-go/x/strconvx"
	"rtcphone-go/x/timex"
)

// Actuator receives the output levels on every state change.
type Actuator interface {
	Apply(o types.Outputs)
}

// Action sources.
const (
	SourceHook    = "hook"
	SourceCommand = "command"
)

// Action reports one backend request and its immediate result.
type Action struct {
	Op     string // connect, disconnect, answer, reject, terminate, dial, volume
	Arg    string
	Level  int
	Source string
	Err    error
}

// Hooks are optional observers. They run on the mutating goroutine, the
// state and hook observers with the controller lock held, so they must not
// call back into the controller.
type Hooks struct {
	OnState  func(from types.PhoneState, st types.PhoneStatus)
	OnHook   func(offHook bool)
	OnAction func(a Action)
}

// Controller owns the phone state, the call flags and the peer address.
// Every mutation goes through its methods; reads return copies.
type Controller struct {
	backend hfp.Backend
	out     Actuator
	hooks   Hooks
	log     *slog.Logger

	mu      sync.Mutex
	offHook bool
	state   types.PhoneState
	flags   types.CallFlags
	peer    hfp.Address
	ready   bool
	absent  error // set when the target has no telephony at all
}

// NewController starts on-hook with every flag cleared. The actuator is not
// written until the first state change.
func NewController(backend hfp.Backend, out Actuator, log *slog.Logger, hooks Hooks) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		backend: backend,
		out:     out,
		hooks:   hooks,
		log:     log,
		state:   types.StateOnHook,
	}
}

// ---- snapshots ----

func (c *Controller) State() types.PhoneState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Flags() types.CallFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags
}

func (c *Controller) OffHook() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offHook
}

func (c *Controller) Peer() hfp.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Snapshot returns a consistent copy of everything status reporting needs.
func (c *Controller) Snapshot() types.PhoneStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() types.PhoneStatus {
	return types.PhoneStatus{
		OffHook: c.offHook,
		State:   c.state,
		Ready:   c.ready,
		Flags:   c.flags,
		Peer:    c.peer.String(),
		TS:      timex.NowMs(),
	}
}

// ---- inputs ----

// SetReady records whether the backend came up.
func (c *Controller) SetReady(ready bool) {
	c.mu.Lock()
	c.ready = ready
	c.mu.Unlock()
}

// SetUnavailable records that telephony cannot run on this target. Every
// operator action then fails with err before any other check.
func (c *Controller) SetUnavailable(err error) {
	c.mu.Lock()
	c.absent = err
	c.ready = false
	c.mu.Unlock()
}

func (c *Controller) unavailable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.absent
}

// SetPeer stores the address used by Connect and Disconnect.
func (c *Controller) SetPeer(a hfp.Address) {
	c.mu.Lock()
	c.peer = a
	c.mu.Unlock()
	c.log.Info("peer configured", "peer", a.String())
}

// SetHookStable takes a debounced hook level. A transition may issue one
// call-control request before the state is recomputed: going on-hook ends
// or rejects a call in progress, lifting the handset answers a ringing one.
func (c *Controller) SetHookStable(offHook bool) {
	c.mu.Lock()
	if offHook == c.offHook {
		c.mu.Unlock()
		return
	}
	c.offHook = offHook
	f := c.flags

	var op string
	switch {
	case !offHook && (f.CallActive || f.CallSetupOutgoing):
		op = "terminate"
	case !offHook && f.CallIncoming:
		op = "reject"
	case offHook && f.CallIncoming && !f.CallActive:
		op = "answer"
	}
	if c.hooks.OnHook != nil {
		c.hooks.OnHook(offHook)
	}
	c.log.Info("hook", "state", types.HookName(offHook))
	c.mu.Unlock()

	if op != "" {
		c.issue(Action{Op: op, Source: SourceHook})
	}

	c.mu.Lock()
	c.recomputeLocked()
	c.mu.Unlock()
}

// ApplyCallEvent folds one normalized backend signal into the flags and
// recomputes. Applying the same signal twice changes nothing the second
// time.
func (c *Controller) ApplyCallEvent(sig Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply(&c.flags, sig)
	c.recomputeLocked()
}

// Recompute re-derives the state from the current inputs.
func (c *Controller) Recompute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recomputeLocked()
}

func (c *Controller) recomputeLocked() {
	next := Derive(c.offHook, c.flags)
	if next == c.state {
		return
	}
	prev := c.state
	c.state = next
	if c.out != nil {
		c.out.Apply(OutputsFor(next))
	}
	c.log.Info("state change", "from", prev.String(), "to", next.String())
	if c.hooks.OnState != nil {
		c.hooks.OnState(prev, c.snapshotLocked())
	}
}

// ---- operator actions ----
//
// Precondition failures return an errcode.Code and touch nothing. Backend
// failures come back as *errcode.E with code backend_failed.

func (c *Controller) Connect() error {
	if err := c.unavailable(); err != nil {
		return err
	}
	c.mu.Lock()
	ready, peer := c.ready, c.peer
	c.mu.Unlock()
	if !ready {
		return errcode.BackendNotReady
	}
	if peer.IsUnset() {
		return errcode.PeerNotConfigured
	}
	return c.issue(Action{Op: "connect", Arg: peer.String(), Source: SourceCommand})
}

func (c *Controller) Disconnect() error {
	if err := c.unavailable(); err != nil {
		return err
	}
	c.mu.Lock()
	ready, peer := c.ready, c.peer
	c.mu.Unlock()
	if !ready {
		return errcode.BackendNotReady
	}
	return c.issue(Action{Op: "disconnect", Arg: peer.String(), Source: SourceCommand})
}

func (c *Controller) Answer() error {
	if err := c.unavailable(); err != nil {
		return err
	}
	f := c.Flags()
	if !f.Connected || !f.CallIncoming {
		return errcode.NoIncomingCall
	}
	return c.issue(Action{Op: "answer", Source: SourceCommand})
}

// End rejects an unanswered incoming call and terminates anything else. It
// returns which of the two it asked for.
func (c *Controller) End() (string, error) {
	if err := c.unavailable(); err != nil {
		return "end", err
	}
	f := c.Flags()
	if !f.Connected {
		return "", errcode.NotConnected
	}
	op := "terminate"
	if f.CallIncoming && !f.CallActive {
		op = "reject"
	}
	return op, c.issue(Action{Op: op, Source: SourceCommand})
}

func (c *Controller) Dial(number string) error {
	if err := c.unavailable(); err != nil {
		return err
	}
	if !c.Flags().Connected {
		return errcode.NotConnected
	}
	if number == "" {
		return errcode.EmptyNumber
	}
	return c.issue(Action{Op: "dial", Arg: number, Source: SourceCommand})
}

// SetVolume clamps level to the HFP gain range and returns the value sent.
func (c *Controller) SetVolume(level int) (int, error) {
	if err := c.unavailable(); err != nil {
		return 0, err
	}
	if !c.Flags().Connected {
		return 0, errcode.NotConnected
	}
	v := mathx.Clamp(level, 0, hfp.MaxVolume)
	return v, c.issue(Action{Op: "volume", Arg: strconvx.Itoa(v), Level: v, Source: SourceCommand})
}

// issue sends one request to the backend without holding the lock.
func (c *Controller) issue(a Action) error {
	var err error
	switch a.Op {
	case "connect":
		err = c.backend.Connect(c.Peer())
	case "disconnect":
		err = c.backend.Disconnect(c.Peer())
	case "answer":
		err = c.backend.Answer()
	case "reject":
		err = c.backend.Reject()
	case "terminate":
		err = c.backend.Terminate()
	case "dial":
		err = c.backend.Dial(a.Arg)
	case "volume":
		err = c.backend.SetVolume(hfp.VolumeSpeaker, a.Level)
	}
	if err != nil {
		if errcode.Of(err) != errcode.BackendUnavailable {
			err = errcode.Wrap(errcode.BackendFailed, a.Op, err)
		}
		c.log.Warn("backend request failed", "op", a.Op, "source", a.Source, "err", err)
	} else {
		c.log.Debug("backend request", "op", a.Op, "arg", a.Arg, "source", a.Source)
	}
	a.Err = err
	if c.hooks.OnAction != nil {
		c.hooks.OnAction(a)
	}
	return err
}
