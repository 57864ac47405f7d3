// cmd/boardtest/main.go
package main

import (
	"time"

	"rtcphone-go/services/hal"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/phone"
	"rtcphone-go/types"
	"rtcphone-go/x/fmtx"
)

// ---------- Configuration ----------

// Override with -ldflags "-X main.board=rpi".
var board = "pico"

const (
	// Dwell per state, long enough to hear the ringer and see the LED.
	dwell = 2 * time.Second

	// Hook samples per dwell.
	hookSamples = 20

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

// Every state, in the order a call normally goes through them.
var sequence = []types.PhoneState{
	types.StateOnHook,
	types.StateIdle,
	types.StateDialing,
	types.StateInCall,
	types.StateRinging,
	types.StateOnHook,
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// ---------- Main ----------

func main() {
	time.Sleep(2 * time.Second)

	b, ok := boards.Lookup(board)
	if !ok {
		println("[boardtest] unknown board", board)
		return
	}
	plat, err := hal.DefaultPlatform()
	if err != nil {
		println("[boardtest] platform:", err.Error())
		return
	}
	lines, err := hal.Open(b, plat)
	if err != nil {
		println("[boardtest] open:", err.Error())
		return
	}
	println(fmtx.Sprintf("[boardtest] board=%s target=%s platform=%s", b.Name, b.Target, plat.Name))
	println("[boardtest] lift and replace the handset during the run")

	cycle := 0
	for {
		cycle++
		println(fmtx.Sprintf("=== boardtest: cycle %d ===", cycle))

		var sawOff, sawOn bool
		for _, st := range sequence {
			o := phone.OutputsFor(st)
			lines.Apply(o)
			println(fmtx.Sprintf("state=%s ring=%s line=%s led=%s",
				st.String(), onOff(o.RingDrive), onOff(o.LineEnable), onOff(o.Indicator)))

			for i := 0; i < hookSamples; i++ {
				if lines.OffHook() {
					sawOff = true
				} else {
					sawOn = true
				}
				time.Sleep(dwell / hookSamples)
			}
			println(fmtx.Sprintf("  hook=%s", types.HookName(lines.OffHook())))
		}

		if sawOff && sawOn {
			println("[PASS] outputs cycled; hook seen in both positions")
		} else {
			println(fmtx.Sprintf("[FAIL] hook stuck %s", types.HookName(sawOff)))
		}

		if cyclesToRun > 0 && cycle >= cyclesToRun {
			println(fmtx.Sprintf("completed %d cycles; halting", cycle))
			return
		}
	}
}
