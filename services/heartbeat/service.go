// Package heartbeat logs a periodic liveness line carrying the phone state.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"rtcphone-go/bus"
	"rtcphone-go/services/config"
	"rtcphone-go/services/phone"
	"rtcphone-go/types"
)

const defaultInterval = 30 * time.Second

var (
	topicConfigHeartbeat = config.Topic("heartbeat")
	topicConfigPhone     = config.Topic("phone")
)

type Service struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log.With("service", "heartbeat")}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	phoneSub := conn.Subscribe(topicConfigPhone)
	defer conn.Unsubscribe(phoneSub)
	stateSub := conn.Subscribe(phone.TopicState)
	defer conn.Unsubscribe(stateSub)

	interval := defaultInterval
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var (
		last    types.PhoneStatus
		haveSt  bool
		device  string
		started = time.Now()
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("heartbeat service stopping")
			return
		case <-tick.C:
			attrs := []any{"uptime", time.Since(started).Round(time.Second).String()}
			if device != "" {
				attrs = append(attrs, "device", device)
			}
			if haveSt {
				attrs = append(attrs, "state", last.State.String(), "hook", types.HookName(last.OffHook),
					"connected", last.Flags.Connected)
			}
			s.log.Info("heartbeat", attrs...)
		case msg, ok := <-stateSub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(types.PhoneStatus); ok {
				last, haveSt = st, true
			}
		case msg, ok := <-phoneSub.Channel():
			if !ok {
				return
			}
			if ps, ok := msg.Payload.(config.PhoneSection); ok {
				device = ps.DeviceName
			}
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			hb, ok := msg.Payload.(config.HeartbeatConfig)
			if !ok || hb.Interval == interval {
				continue
			}
			if hb.Interval <= 0 {
				tick.Stop()
				s.log.Info("heartbeat disabled")
			} else {
				tick.Reset(hb.Interval)
				s.log.Info("heartbeat interval set", "interval", hb.Interval.String())
			}
			interval = hb.Interval
		}
	}
}

// Start runs the heartbeat until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
