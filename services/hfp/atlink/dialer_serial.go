//go:build !rp2040 && !rp2350

package atlink

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"rtcphone-go/services/hal"
	"rtcphone-go/types"
)

// SerialDialer opens the link over a serial device.
type SerialDialer struct {
	Config types.SerialConfig
	// ReadTimeout bounds each Read so Close is noticed; zero means 200 ms.
	ReadTimeout time.Duration
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := hal.SerialMode(d.Config)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(d.Config.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Config.Port, err)
	}
	rt := d.ReadTimeout
	if rt <= 0 {
		rt = 200 * time.Millisecond
	}
	if err := p.SetReadTimeout(rt); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &serialTransport{Port: p}, nil
}

// serialTransport hides the zero-byte reads go.bug.st/serial returns on a
// read timeout from bufio.Scanner, which gives up after too many of them.
type serialTransport struct {
	serial.Port
}

func (t *serialTransport) Read(p []byte) (int, error) {
	for {
		n, err := t.Port.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
