package boards

import "sort"

// Expander places the three outputs on an I²C port expander instead of
// native GPIO. Output numbers in Board are then expander bit indices.
type Expander struct {
	Bus   string // "i2c0", "i2c1"
	Addr  uint16
	Width int // 8 (PCF8574) or 16 (PCF8575)
}

// Board is the wiring of one handset build. It is selected by name at
// startup; nothing in the phone logic depends on which one is in use.
type Board struct {
	Name   string
	Target string // shown in the boot banner

	HookSense  int
	RingCmd    int
	LineEnable int
	LED        int

	// Hook contact closes to ground when the handset is lifted.
	HookActiveLow bool
	HookPull      string // "up", "down", "none"

	// ClassicBT is false on SoCs that only have BLE; HFP needs BR/EDR.
	ClassicBT bool

	Expander *Expander
}

var registry = map[string]Board{
	"esp32": {
		Name: "esp32", Target: "ESP32",
		HookSense: 27, RingCmd: 26, LineEnable: 25, LED: 2,
		HookActiveLow: true, HookPull: "up",
		ClassicBT: true,
	},
	"esp32s3": {
		Name: "esp32s3", Target: "ESP32-S3",
		HookSense: 4, RingCmd: 5, LineEnable: 6, LED: 48,
		HookActiveLow: true, HookPull: "up",
	},
	"pico": {
		Name: "pico", Target: "Raspberry Pi Pico W",
		HookSense: 15, RingCmd: 14, LineEnable: 13, LED: 25,
		HookActiveLow: true, HookPull: "up",
		ClassicBT: true,
	},
	"pico_pcf8574": {
		Name: "pico_pcf8574", Target: "Raspberry Pi Pico W + PCF8574",
		HookSense: 15, RingCmd: 0, LineEnable: 1, LED: 2,
		HookActiveLow: true, HookPull: "up",
		ClassicBT: true,
		Expander:  &Expander{Bus: "i2c0", Addr: 0x20, Width: 8},
	},
	"rpi": {
		Name: "rpi", Target: "Raspberry Pi (BCM)",
		HookSense: 17, RingCmd: 27, LineEnable: 22, LED: 23,
		HookActiveLow: true, HookPull: "up",
		ClassicBT: true,
	},
}

// Lookup returns a copy of the named board.
func Lookup(name string) (Board, bool) {
	b, ok := registry[name]
	if ok && b.Expander != nil {
		e := *b.Expander
		b.Expander = &e
	}
	return b, ok
}

// Names lists known boards in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
