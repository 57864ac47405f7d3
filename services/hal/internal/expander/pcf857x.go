// services/hal/internal/expander/pcf857x.go
//
// PCF8574/PCF8575 quasi-bidirectional I²C port expanders.
//
// The parts have no registers: a write sets the latch for every pin (LSB
// first), a read returns the port levels. A latch bit of 1 releases the pin
// (weak pull-up, usable as input), 0 drives it low.
package expander

import (
	"errors"
	"sync"

	"rtcphone-go/services/hal/internal/halcore"

	"tinygo.org/x/drivers"
)

var ErrBadWidth = errors.New("expander: width must be 8 or 16")

// Device keeps a shadow of the output latch so single-pin writes do not
// need a read-modify-write over the bus.
type Device struct {
	bus   drivers.I2C
	addr  uint16
	width int

	mu     sync.Mutex
	shadow uint16
	err    error // last bus error, sticky until the next successful write
}

// New returns an expander with all pins released. width is 8 (PCF8574) or
// 16 (PCF8575).
func New(bus drivers.I2C, addr uint16, width int) (*Device, error) {
	if width != 8 && width != 16 {
		return nil, ErrBadWidth
	}
	d := &Device{bus: bus, addr: addr, width: width, shadow: 0xFFFF}
	if err := d.flush(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) flush() error {
	var buf [2]byte
	buf[0] = byte(d.shadow)
	buf[1] = byte(d.shadow >> 8)
	err := d.bus.Tx(d.addr, buf[:d.width/8], nil)
	d.err = err
	return err
}

func (d *Device) read() (uint16, error) {
	var buf [2]byte
	if err := d.bus.Tx(d.addr, nil, buf[:d.width/8]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (d *Device) setBit(bit int, high bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.shadow
	if high {
		d.shadow |= 1 << bit
	} else {
		d.shadow &^= 1 << bit
	}
	if d.shadow != prev || d.err != nil {
		_ = d.flush()
	}
}

func (d *Device) getBit(bit int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.read()
	if err != nil {
		return d.shadow&(1<<bit) != 0
	}
	return v&(1<<bit) != 0
}

// Err reports the last bus error seen on a write.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// ByNumber makes the expander usable wherever a halcore.PinFactory is.
func (d *Device) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 || n >= d.width {
		return nil, false
	}
	return &pin{d: d, n: n}, true
}

type pin struct {
	d *Device
	n int
}

// ConfigureInput releases the pin. The part only has a weak pull-up, so
// pull-down requests are refused.
func (p *pin) ConfigureInput(pull halcore.Pull) error {
	if pull == halcore.PullDown {
		return errors.New("expander: pull-down not supported")
	}
	p.d.setBit(p.n, true)
	return nil
}

func (p *pin) ConfigureOutput(initial bool) error {
	p.d.setBit(p.n, initial)
	return p.d.Err()
}

func (p *pin) Set(level bool) { p.d.setBit(p.n, level) }
func (p *pin) Get() bool      { return p.d.getBit(p.n) }
func (p *pin) Number() int    { return p.n }
