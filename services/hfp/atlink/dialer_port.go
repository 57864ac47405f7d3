package atlink

import (
	"context"
	"io"
	"sync"

	"rtcphone-go/services/hal"
	"rtcphone-go/types"
)

// PortDialer opens the link on a hal serial port. It is the dialer for
// MCU targets, where the Bluetooth module hangs off a UART driven by uartx.
type PortDialer struct {
	Config types.SerialConfig
	// Open defaults to hal.OpenSerial.
	Open func(types.SerialConfig) (hal.Port, error)
}

func (d PortDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	open := d.Open
	if open == nil {
		open = hal.OpenSerial
	}
	p, err := open(d.Config)
	if err != nil {
		return nil, err
	}
	rctx, cancel := context.WithCancel(context.Background())
	return &portTransport{p: p, ctx: rctx, cancel: cancel}, nil
}

// portTransport turns RecvSomeContext into a plain Read that Close unblocks.
type portTransport struct {
	p      hal.Port
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (t *portTransport) Read(b []byte) (int, error) {
	n, err := t.p.RecvSomeContext(t.ctx, b)
	if err != nil && t.ctx.Err() != nil {
		return n, io.EOF
	}
	return n, err
}

func (t *portTransport) Write(b []byte) (int, error) { return t.p.Write(b) }

func (t *portTransport) Close() error {
	var err error
	t.once.Do(func() {
		t.cancel()
		err = t.p.Close()
	})
	return err
}
