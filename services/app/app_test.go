package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"rtcphone-go/errcode"
	"rtcphone-go/services/config"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/hfp"
	"rtcphone-go/services/hfp/atlink"
	"rtcphone-go/services/hfp/sim"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func board(t *testing.T, name string) boards.Board {
	t.Helper()
	b, ok := boards.Lookup(name)
	if !ok {
		t.Fatalf("board %s missing", name)
	}
	return b
}

func TestNewBackendSelection(t *testing.T) {
	cfg := config.Default()

	cfg.HFP.Backend = config.BackendSim
	cfg.DeviceName = "HALL_PHONE"
	sb, ok := NewBackend(cfg, board(t, "rpi"), quiet()).(*sim.Backend)
	if !ok {
		t.Fatal("sim backend not selected")
	}
	if sb.Name() != "HALL_PHONE" {
		t.Fatalf("sim name %q, want device_name", sb.Name())
	}

	cfg.HFP.Backend = config.BackendAT
	cfg.HFP.Port = "/dev/rfcomm0"
	if _, ok := NewBackend(cfg, board(t, "rpi"), quiet()).(*atlink.Link); !ok {
		t.Fatal("AT link not selected")
	}

	cfg.HFP.Backend = config.BackendNone
	if _, ok := NewBackend(cfg, board(t, "rpi"), quiet()).(hfp.Unavailable); !ok {
		t.Fatal("none should give Unavailable")
	}
}

func TestNoClassicBluetoothIsUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.HFP.Backend = config.BackendSim
	be := NewBackend(cfg, board(t, "esp32s3"), quiet())
	err := be.Init(context.Background())
	if errcode.Of(err) != errcode.BackendUnavailable {
		t.Fatalf("Init: %v", err)
	}
	if got := be.(hfp.Unavailable).Reason; got != "target without Bluetooth Classic" {
		t.Fatalf("reason %q", got)
	}
}

func TestBanner(t *testing.T) {
	got := Banner(board(t, "pico"), "rp2")
	want := []string{
		"[RTC_PHONE] Boot OK",
		"[RTC_PHONE] target=Raspberry Pi Pico W platform=rp2",
		"[RTC_PHONE] profile=pico",
	}
	if len(got) != len(want) {
		t.Fatalf("banner %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: %q want %q", i, got[i], want[i])
		}
	}
}

func TestNewLoggerLevel(t *testing.T) {
	log := NewLogger(config.LogConfig{Level: "warn", Format: "json"})
	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info enabled at warn level")
	}
	if !log.Enabled(context.Background(), slog.LevelWarn) {
		t.Fatal("warn disabled")
	}
	if !NewLogger(config.LogConfig{Level: "bogus"}).Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("bad level should fall back to info")
	}
}

func TestRunUnknownBoard(t *testing.T) {
	cfg := config.Default()
	cfg.Board = "toaster"
	if err := Run(context.Background(), cfg, quiet()); errcode.Of(err) != errcode.UnknownBoard {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.HFP.Backend = config.BackendSim
	cfg.Heartbeat.Interval = 0

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, quiet()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
