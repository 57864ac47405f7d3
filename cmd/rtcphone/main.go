// cmd/rtcphone/main.go
//
// Host daemon: the handset on a Linux board (periph GPIO with -tags periph)
// or on simulated pins, with the operator console on stdin or a serial port.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rtcphone-go/services/app"
	"rtcphone-go/services/config"
)

func main() {
	fs := flag.NewFlagSet("rtcphone", flag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	board := config.Default().Board
	if v, ok := os.LookupEnv(config.EnvBoard); ok && v != "" {
		board = v
	}
	if f := fs.Lookup(config.FlagBoard); f != nil && f.Value.String() != "" {
		board = f.Value.String()
	}
	path := fs.Lookup(config.FlagConfig).Value.String()

	cfg, err := config.LoadConfig(
		config.WithDefaults(),
		config.WithEmbedded(board),
		config.WithFile(path),
		config.WithEnv(),
		config.WithFlags(fs),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtcphone:", err)
		os.Exit(2)
	}

	log := app.NewLogger(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Error("rtcphone stopped", "err", err)
		os.Exit(1)
	}
}
