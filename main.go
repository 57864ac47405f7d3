// Firmware entry for the RP2 handset controller. The board profile is fixed
// at link time:
//
//	tinygo flash -target pico -ldflags "-X main.board=pico_pcf8574" .
package main

import (
	"context"
	"time"

	"rtcphone-go/services/app"
	"rtcphone-go/services/config"
)

var board = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	cfg, err := config.LoadConfig(config.WithDefaults(), config.WithEmbedded(board))
	if err != nil {
		halt("config: " + err.Error())
	}
	log := app.NewLogger(cfg.Log)
	if err := app.Run(context.Background(), cfg, log); err != nil {
		halt("run: " + err.Error())
	}
}

// halt keeps the error visible on the console instead of resetting.
func halt(msg string) {
	for {
		println("[RTC_PHONE] fatal:", msg)
		time.Sleep(5 * time.Second)
	}
}
