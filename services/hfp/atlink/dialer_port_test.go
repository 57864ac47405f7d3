package atlink

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"rtcphone-go/services/hal"
	"rtcphone-go/types"
)

type chanPort struct {
	rx     chan []byte
	wrote  []byte
	closed bool
}

func (p *chanPort) Write(b []byte) (int, error) { p.wrote = append(p.wrote, b...); return len(b), nil }
func (p *chanPort) Close() error                { p.closed = true; return nil }

func (p *chanPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case d := <-p.rx:
		return copy(b, d), nil
	}
}

func TestPortDialer_ReadWriteClose(t *testing.T) {
	port := &chanPort{rx: make(chan []byte, 1)}
	var gotCfg types.SerialConfig
	d := PortDialer{
		Config: types.SerialConfig{Port: "uart1", Baud: 115200},
		Open: func(c types.SerialConfig) (hal.Port, error) {
			gotCfg = c
			return port, nil
		},
	}
	tr, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if gotCfg.Port != "uart1" {
		t.Fatalf("opened %q", gotCfg.Port)
	}

	if _, err := tr.Write([]byte("AT+BRSF=20\r")); err != nil || string(port.wrote) != "AT+BRSF=20\r" {
		t.Fatalf("write %q err=%v", port.wrote, err)
	}
	port.rx <- []byte("OK\r\n")
	buf := make([]byte, 16)
	n, err := tr.Read(buf)
	if err != nil || string(buf[:n]) != "OK\r\n" {
		t.Fatalf("read %q err=%v", buf[:n], err)
	}

	// A blocked Read ends with EOF once the transport is closed.
	res := make(chan error, 1)
	go func() {
		_, err := tr.Read(buf)
		res <- err
	}()
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-res:
		if !errors.Is(err, io.EOF) {
			t.Fatalf("read after close: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read still blocked after Close")
	}
	if !port.closed {
		t.Fatal("port not closed")
	}
	_ = tr.Close()
}

func TestPortDialer_Errors(t *testing.T) {
	boom := errors.New("uart busy")
	d := PortDialer{Open: func(types.SerialConfig) (hal.Port, error) { return nil, boom }}
	if _, err := d.Dial(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Dial: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Dial(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Dial with cancelled ctx: %v", err)
	}
}
