// services/hal/internal/platform/factories_periph.go
//go:build linux && periph && !(rp2040 || rp2350)

package platform

import (
	"fmt"
	"sync"

	"rtcphone-go/services/hal/internal/halcore"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Name identifies the pin backend in boot logs.
const Name = "periph"

var (
	initOnce sync.Once
	initErr  error
)

func hostInit() error {
	initOnce.Do(func() { _, initErr = host.Init() })
	return initErr
}

// DefaultPinFactory maps logical numbers to BCM "GPIO<n>" names.
func DefaultPinFactory() (halcore.PinFactory, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	return periphPinFactory{}, nil
}

// DefaultI2CFactory opens the first registered I²C bus as "i2c0" lazily.
func DefaultI2CFactory() (halcore.I2CBusFactory, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	return &periphI2CFactory{open: map[string]i2c.BusCloser{}}, nil
}

// ---- GPIO ----

type periphPinFactory struct{}

func (periphPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, false
	}
	return &periphPin{p: p, n: n}, true
}

type periphPin struct {
	p gpio.PinIO
	n int
}

func (r *periphPin) ConfigureInput(pull halcore.Pull) error {
	pp := gpio.Float
	switch pull {
	case halcore.PullUp:
		pp = gpio.PullUp
	case halcore.PullDown:
		pp = gpio.PullDown
	}
	return r.p.In(pp, gpio.NoEdge)
}

func (r *periphPin) ConfigureOutput(initial bool) error {
	return r.p.Out(gpio.Level(initial))
}

func (r *periphPin) Set(level bool) { _ = r.p.Out(gpio.Level(level)) }
func (r *periphPin) Get() bool      { return r.p.Read() == gpio.High }
func (r *periphPin) Number() int    { return r.n }

// ---- I²C ----

// periph's i2c.Bus already has Tx(addr uint16, w, r []byte) error, which is
// all drivers.I2C asks for.
type periphI2CFactory struct {
	mu   sync.Mutex
	open map[string]i2c.BusCloser
}

func (f *periphI2CFactory) ByID(id string) (drivers.I2C, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.open[id]; ok {
		return b, true
	}
	name := ""
	switch id {
	case "i2c0", "":
	case "i2c1":
		name = "1"
	default:
		name = id
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, false
	}
	f.open[id] = b
	return b, true
}
