package phone

import (
	"context"
	"log/slog"
	"time"

	"rtcphone-go/bus"
	"rtcphone-go/errcode"
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
	"rtcphone-go/x/timex"
)

const (
	DefaultPollInterval = 10 * time.Millisecond

	// Per tick, so a burst of events cannot starve hook sampling.
	maxDrainPerTick = 32
)

// HookSensor is the raw hook input, true when the handset is lifted.
type HookSensor interface {
	OffHook() bool
}

// Config holds the service's operating parameters.
type Config struct {
	PollInterval time.Duration
	DebounceMs   int
	Peer         hfp.Address
	Banner       []string // printed before the help text at boot
}

// Service runs the polling loop: sample the hook, debounce, then drain the
// backend events and operator commands, then sleep until the next tick.
// It is the only goroutine that mutates the controller.
type Service struct {
	cfg     Config
	hook    HookSensor
	backend hfp.Backend
	conn    *bus.Connection
	log     *slog.Logger

	ctl    *Controller
	router *Router
	deb    *Debouncer
	start  time.Time
	now    func() uint32
}

// New wires a service. out receives actuator levels on state changes.
func New(cfg Config, hook HookSensor, out Actuator, backend hfp.Backend, conn *bus.Connection, log *slog.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		cfg:     cfg,
		hook:    hook,
		backend: backend,
		conn:    conn,
		log:     log.With("service", "phone"),
	}
	s.now = s.elapsedMs
	s.ctl = NewController(backend, out, s.log, Hooks{
		OnState:  s.onState,
		OnHook:   s.onHook,
		OnAction: s.onAction,
	})
	s.router = NewRouter(s.ctl)
	return s
}

func (s *Service) Controller() *Controller { return s.ctl }
func (s *Service) Router() *Router         { return s.router }

func (s *Service) elapsedMs() uint32 { return uint32(time.Since(s.start) / time.Millisecond) }

// Run boots the phone and loops until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.start = time.Now()
	cmds := s.conn.Subscribe(TopicCmd)
	defer s.conn.Unsubscribe(cmds)

	s.boot(ctx)

	tick := time.NewTicker(s.cfg.PollInterval)
	defer tick.Stop()

	events := s.backend.Events()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return nil
		case <-tick.C:
			events = s.step(events, cmds)
		}
	}
}

func (s *Service) boot(ctx context.Context) {
	for _, l := range s.cfg.Banner {
		s.notice(l)
	}
	for _, l := range HelpLines {
		s.notice(l)
	}

	raw := s.hook.OffHook()
	s.deb = NewDebouncer(raw, s.cfg.DebounceMs)
	s.ctl.SetHookStable(raw)

	if !s.cfg.Peer.IsUnset() {
		s.ctl.SetPeer(s.cfg.Peer)
	}

	if err := s.backend.Init(ctx); err != nil {
		s.log.Warn("telephony unavailable, local mode only", "err", err)
		if errcode.Of(err) == errcode.BackendUnavailable {
			s.ctl.SetUnavailable(err)
			s.notice(refusal(errcode.BackendUnavailable, err))
		} else {
			s.notice("[HFP] init failed: " + err.Error())
		}
	} else {
		s.ctl.SetReady(true)
		s.notice("[HFP] stack ready")
		if s.ctl.Peer().IsUnset() {
			s.notice("[HFP] WARNING: set the peer with p <mac> before b")
		}
	}

	s.ctl.Recompute()
	s.publishStatus(s.ctl.Snapshot())
}

// step is one iteration of the loop. It returns the event channel, nil once
// the backend has closed it.
func (s *Service) step(events <-chan hfp.Event, cmds *bus.Subscription) <-chan hfp.Event {
	if stable, changed := s.deb.Observe(s.hook.OffHook(), s.now()); changed {
		s.ctl.SetHookStable(stable)
	}

	events = s.drainEvents(events)
	s.drainCommands(cmds)
	return events
}

func (s *Service) drainEvents(events <-chan hfp.Event) <-chan hfp.Event {
	for i := 0; i < maxDrainPerTick && events != nil; i++ {
		select {
		case ev, ok := <-events:
			if !ok {
				s.log.Warn("backend event stream closed")
				return nil
			}
			s.handleEvent(ev)
		default:
			return events
		}
	}
	return events
}

func (s *Service) drainCommands(cmds *bus.Subscription) {
	for i := 0; i < maxDrainPerTick; i++ {
		select {
		case msg, ok := <-cmds.Channel():
			if !ok {
				return
			}
			s.handleCommand(msg)
		default:
			return
		}
	}
}

func (s *Service) handleEvent(ev hfp.Event) {
	if line := Describe(ev); line != "" {
		s.notice(line)
	}
	s.log.Debug("backend event", "kind", ev.Kind.String())

	sig, ok := Normalize(ev)
	if !ok {
		return
	}
	if sig.Kind == CallerID && sig.Number != "" {
		s.conn.Publish(s.conn.NewMessage(TopicCaller, types.CallerID{Number: sig.Number, TS: timex.NowMs()}, false))
	}
	s.ctl.ApplyCallEvent(sig)
}

func (s *Service) handleCommand(msg *bus.Message) {
	var line string
	switch p := msg.Payload.(type) {
	case types.CommandLine:
		line = p.Line
	case string:
		line = p
	case []byte:
		line = string(p)
	default:
		s.log.Warn("unexpected command payload", "topic", msg.Topic.String())
		return
	}
	reply := s.router.Handle(line)
	if reply.Code != "" {
		s.log.Info("command refused", "line", line, "code", reply.Code)
	}
	if s.conn.Reply(msg, reply, false) {
		return
	}
	for _, l := range reply.Lines {
		s.notice(l)
	}
}

// ---- controller observers ----

func (s *Service) onState(_ types.PhoneState, st types.PhoneStatus) {
	s.notice("[RTC_PHONE] state=" + st.State.String())
	s.publishStatus(st)
}

func (s *Service) onHook(offHook bool) {
	s.notice("[RTC_PHONE] hook=" + types.HookName(offHook))
	s.conn.Publish(s.conn.NewMessage(TopicHook, types.HookValue{OffHook: offHook, TS: timex.NowMs()}, true))
}

// Command-initiated results go back in the reply; only hook-initiated ones
// need an unsolicited line.
func (s *Service) onAction(a Action) {
	if a.Source != SourceHook {
		return
	}
	if a.Err != nil {
		s.notice("[HFP] " + a.Op + " -> " + a.Err.Error())
		return
	}
	s.notice("[HFP] " + a.Op + " -> OK")
}

func (s *Service) publishStatus(st types.PhoneStatus) {
	s.conn.Publish(s.conn.NewMessage(TopicState, st, true))
}

func (s *Service) notice(line string) {
	s.conn.Publish(s.conn.NewMessage(TopicNotice, types.Notice{Text: line}, false))
}
