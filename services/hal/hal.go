// Package hal binds a board profile to concrete pins: one hook input and the
// three handset outputs.
package hal

import (
	"sync"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hal/boards"
	"rtcphone-go/services/hal/internal/expander"
	"rtcphone-go/services/hal/internal/halcore"
	"rtcphone-go/services/hal/internal/platform"
	"rtcphone-go/types"
)

// Port is a console serial port.
type Port = halcore.SerialPort

// Platform is what the running target offers.
type Platform struct {
	Name string
	Pins halcore.PinFactory
	I2C  halcore.I2CBusFactory
}

// DefaultPlatform returns the pin and I²C factories for the build target.
func DefaultPlatform() (Platform, error) {
	pins, err := platform.DefaultPinFactory()
	if err != nil {
		return Platform{}, err
	}
	i2c, err := platform.DefaultI2CFactory()
	if err != nil {
		return Platform{}, err
	}
	return Platform{Name: platform.Name, Pins: pins, I2C: i2c}, nil
}

// OpenConsole opens the operator console described by cfg.
func OpenConsole(cfg types.SerialConfig) (Port, error) { return platform.OpenConsole(cfg) }

// OpenSerial opens a serial line to a peripheral, such as the Bluetooth
// module carrying the AT link. Port names follow OpenConsole.
func OpenSerial(cfg types.SerialConfig) (Port, error) {
	if cfg.Port == "" || cfg.Port == platform.StdioPort {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "serial", Msg: "no port"}
	}
	return platform.OpenConsole(cfg)
}

// Lines is the handset wiring. Apply writes only pins whose level changes.
type Lines struct {
	board  boards.Board
	hook   halcore.GPIOPin
	ring   halcore.GPIOPin
	line   halcore.GPIOPin
	led    halcore.GPIOPin
	expand *expander.Device

	mu  sync.Mutex
	out types.Outputs
}

// Open configures the board's pins: hook as input, all outputs low.
func Open(b boards.Board, p Platform) (*Lines, error) {
	l := &Lines{board: b}

	hook, ok := p.Pins.ByNumber(b.HookSense)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "hook", Msg: b.Name}
	}
	if err := hook.ConfigureInput(halcore.ParsePull(b.HookPull)); err != nil {
		return nil, err
	}
	l.hook = hook

	outPins := p.Pins
	if b.Expander != nil {
		if p.I2C == nil {
			return nil, &errcode.E{C: errcode.Unsupported, Op: "expander", Msg: "no i2c on this platform"}
		}
		bus, ok := p.I2C.ByID(b.Expander.Bus)
		if !ok {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: "expander", Msg: "unknown bus " + b.Expander.Bus}
		}
		dev, err := expander.New(bus, b.Expander.Addr, b.Expander.Width)
		if err != nil {
			return nil, errcode.Wrap(errcode.Error, "expander", err)
		}
		l.expand = dev
		outPins = dev
	}

	for _, o := range []struct {
		n   int
		dst *halcore.GPIOPin
		op  string
	}{
		{b.RingCmd, &l.ring, "ring"},
		{b.LineEnable, &l.line, "line"},
		{b.LED, &l.led, "led"},
	} {
		pin, ok := outPins.ByNumber(o.n)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: o.op, Msg: b.Name}
		}
		if err := pin.ConfigureOutput(false); err != nil {
			return nil, err
		}
		*o.dst = pin
	}
	return l, nil
}

func (l *Lines) Board() boards.Board { return l.board }

// OffHook samples the hook input once, undebounced.
func (l *Lines) OffHook() bool {
	v := l.hook.Get()
	if l.board.HookActiveLow {
		return !v
	}
	return v
}

// Apply drives the outputs to o.
func (l *Lines) Apply(o types.Outputs) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o.RingDrive != l.out.RingDrive {
		l.ring.Set(o.RingDrive)
	}
	if o.LineEnable != l.out.LineEnable {
		l.line.Set(o.LineEnable)
	}
	if o.Indicator != l.out.Indicator {
		l.led.Set(o.Indicator)
	}
	l.out = o
}

// Outputs returns the levels last applied.
func (l *Lines) Outputs() types.Outputs {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}
