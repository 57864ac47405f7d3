//go:build !rp2040 && !rp2350

package hal

import (
	"testing"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/hal/internal/platform"
	"rtcphone-go/types"

	"tinygo.org/x/drivers"
)

type fixedI2C map[string]drivers.I2C

func (f fixedI2C) ByID(id string) (drivers.I2C, bool) {
	b, ok := f[id]
	return b, ok
}

func hostPlatform() (Platform, *platform.HostPinFactory, *platform.HostI2C) {
	pins := platform.NewHostPinFactory()
	bus := &platform.HostI2C{}
	return Platform{Name: "test", Pins: pins, I2C: fixedI2C{"i2c0": bus}}, pins, bus
}

func TestOpenConfiguresPins(t *testing.T) {
	b, _ := boards.Lookup("esp32")
	p, pins, _ := hostPlatform()
	l, err := Open(b, p)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{26, 25, 2} {
		if !pins.Pin(n).IsOutput() || pins.Pin(n).Get() {
			t.Fatalf("pin %d not a low output", n)
		}
	}
	// Pulled-up, active-low hook idles on-hook.
	if l.OffHook() {
		t.Fatal("idle hook reads off-hook")
	}
	pins.Pin(27).Drive(false)
	if !l.OffHook() {
		t.Fatal("grounded hook should read off-hook")
	}
}

func TestApplyWritesOnlyChanges(t *testing.T) {
	b, _ := boards.Lookup("esp32")
	p, pins, _ := hostPlatform()
	l, _ := Open(b, p)

	l.Apply(types.Outputs{LineEnable: true, Indicator: true})
	l.Apply(types.Outputs{LineEnable: true, Indicator: true})
	l.Apply(types.Outputs{LineEnable: true, Indicator: true, RingDrive: true})

	if got := pins.Pin(25).Writes(); got != 1 {
		t.Fatalf("line enable written %d times, want 1", got)
	}
	if got := pins.Pin(26).Writes(); got != 1 || !pins.Pin(26).Get() {
		t.Fatalf("ring writes=%d level=%v", got, pins.Pin(26).Get())
	}
	if o := l.Outputs(); !o.RingDrive || !o.LineEnable || !o.Indicator {
		t.Fatalf("Outputs = %+v", o)
	}
}

func TestOpenWithExpander(t *testing.T) {
	b, _ := boards.Lookup("pico_pcf8574")
	p, _, bus := hostPlatform()
	l, err := Open(b, p)
	if err != nil {
		t.Fatal(err)
	}
	l.Apply(types.Outputs{LineEnable: true}) // bit 1
	if w := bus.LastTx.W; len(w) != 1 || w[0] != 0xFA {
		t.Fatalf("latch = % X, want FA", w)
	}
}

func TestOpenUnknownPin(t *testing.T) {
	b, _ := boards.Lookup("pico_pcf8574")
	b.Expander.Bus = "i2c9"
	p, _, _ := hostPlatform()
	if _, err := Open(b, p); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("err = %v", err)
	}

	b, _ = boards.Lookup("esp32")
	b.HookSense = -1
	if _, err := Open(b, p); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err = %v", err)
	}
}
