// Package app assembles the handset from a loaded configuration: pins from
// the board profile, the HFP backend, the bus and the services on it.
package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"rtcphone-go/bus"
	"rtcphone-go/errcode"
	"rtcphone-go/services/config"
	"rtcphone-go/services/console"
	"rtcphone-go/services/hal"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/heartbeat"
	"rtcphone-go/services/hfp"
	"rtcphone-go/services/hfp/atlink"
	"rtcphone-go/services/hfp/sim"
	"rtcphone-go/services/phone"
)

const busQueueLen = 16

// NewLogger builds the slog logger described by cfg, writing to stderr.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// NewBackend picks the HFP implementation for cfg. Boards without
// Bluetooth Classic always get hfp.Unavailable.
func NewBackend(cfg *config.Config, board boards.Board, log *slog.Logger) hfp.Backend {
	if !board.ClassicBT {
		return hfp.Unavailable{Reason: "target without Bluetooth Classic"}
	}
	switch cfg.HFP.Backend {
	case config.BackendSim:
		return sim.New(log, sim.WithName(cfg.DeviceName))
	case config.BackendAT:
		return atlink.New(atDialer(cfg.HFP.SerialConfig),
			atlink.WithCommandTimeout(cfg.HFP.CommandTimeout),
			atlink.WithLogger(log))
	default:
		return hfp.Unavailable{Reason: "no HFP backend configured"}
	}
}

// Banner is printed at boot before the command help.
func Banner(board boards.Board, platform string) []string {
	return []string{
		"[RTC_PHONE] Boot OK",
		"[RTC_PHONE] target=" + board.Target + " platform=" + platform,
		"[RTC_PHONE] profile=" + board.Name,
	}
}

// Run opens the hardware and runs the phone until ctx ends.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	board, ok := boards.Lookup(cfg.Board)
	if !ok {
		return &errcode.E{C: errcode.UnknownBoard, Op: "app", Msg: cfg.Board}
	}
	plat, err := hal.DefaultPlatform()
	if err != nil {
		return errcode.Wrap(errcode.Error, "platform", err)
	}
	lines, err := hal.Open(board, plat)
	if err != nil {
		return err
	}
	port, err := hal.OpenConsole(cfg.Console)
	if err != nil {
		return errcode.Wrap(errcode.Error, "console", err)
	}
	defer port.Close()

	backend := NewBackend(cfg, board, log)
	defer backend.Close()

	b := bus.NewBus(busQueueLen)
	config.NewConfigService(cfg, log).Publish(b.NewConnection("config"))
	if err := heartbeat.New(log).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	con := console.New(port, b.NewConnection("console"), log)
	banner := Banner(board, plat.Name)
	if sb, ok := backend.(*sim.Backend); ok {
		if err := sb.Start(ctx, b.NewConnection("sim")); err != nil {
			return err
		}
		con.Route("sim", sim.TopicControl)
		banner = append(banner, sim.RemoteHelp...)
	}
	conDone := con.Start(ctx)

	svc := phone.New(phone.Config{
		PollInterval: time.Duration(cfg.PollMs) * time.Millisecond,
		DebounceMs:   cfg.DebounceMs,
		Peer:         cfg.PeerAddress(),
		Banner:       banner,
	}, lines, lines, backend, b.NewConnection("phone"), log)

	log.Info("starting", "board", board.Name, "platform", plat.Name, "backend", cfg.HFP.Backend)
	phoneDone := make(chan error, 1)
	go func() { phoneDone <- svc.Run(ctx) }()

	for {
		select {
		case err := <-phoneDone:
			return err
		case err := <-conDone:
			// The phone keeps running without an operator, e.g. stdin at EOF.
			conDone = nil
			if err != nil {
				log.Warn("console stopped", "err", err)
			} else {
				log.Info("console closed")
			}
		}
	}
}
