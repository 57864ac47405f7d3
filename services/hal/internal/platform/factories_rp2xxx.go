// services/hal/internal/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"rtcphone-go/services/hal/internal/halcore"
	"rtcphone-go/types"
)

// Name identifies the pin backend in boot logs.
const Name = "rp2"

// StdioPort selects the USB CDC console (println) instead of a UART.
const StdioPort = "stdio"

// DefaultI2CFactory configures i2c0 and i2c1 with board-default pins at 400 kHz.
func DefaultI2CFactory() (halcore.I2CBusFactory, error) {
	f := &rp2I2CFactory{buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	if err := b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		return nil, err
	}
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	if err := b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	}); err != nil {
		return nil, err
	}
	f.buses["i2c1"] = b1

	return f, nil
}

// DefaultPinFactory maps logical numbers directly to machine.Pin(n), which
// matches Pico/Pico 2 GP numbering.
func DefaultPinFactory() (halcore.PinFactory, error) { return rp2PinFactory{}, nil }

// OpenConsole configures uart0 or uart1 through uartx.
func OpenConsole(cfg types.SerialConfig) (halcore.SerialPort, error) {
	var hw *uartx.UART
	var tx, rx machine.Pin
	switch cfg.Port {
	case StdioPort:
		return usbPort{}, nil
	case "uart1":
		hw, tx, rx = uartx.UART1, machine.UART1_TX_PIN, machine.UART1_RX_PIN
	default:
		hw, tx, rx = uartx.UART0, machine.UART0_TX_PIN, machine.UART0_RX_PIN
	}
	baud := uint32(cfg.Baud)
	if baud == 0 {
		baud = 115200
	}
	if err := hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	if cfg.DataBits != 0 || cfg.StopBits != 0 || cfg.Parity != types.ParityNone {
		db, sb := cfg.DataBits, cfg.StopBits
		if db == 0 {
			db = 8
		}
		if sb == 0 {
			sb = 1
		}
		if err := hw.SetFormat(db, sb, toUARTParity(cfg.Parity)); err != nil {
			return nil, err
		}
	}
	return &rp2SerialPort{u: hw}, nil
}

func toUARTParity(p types.Parity) uartx.UARTParity {
	switch p {
	case types.ParityEven:
		return uartx.ParityEven
	case types.ParityOdd:
		return uartx.ParityOdd
	default:
		return uartx.ParityNone
	}
}

type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}
func (p *rp2SerialPort) Close() error { return nil }

// usbPort reads the USB CDC console by polling Buffered.
type usbPort struct{}

func (usbPort) Write(b []byte) (int, error) { return machine.Serial.Write(b) }
func (usbPort) Close() error                { return nil }

func (usbPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if n := machine.Serial.Buffered(); n > 0 {
			return machine.Serial.Read(buf)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// ---- I²C implementation ----

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// ---- GPIO implementation ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	// RP2 user GPIOs are GP0..GP28.
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }
