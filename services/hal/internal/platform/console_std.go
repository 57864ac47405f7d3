// services/hal/internal/platform/console_std.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"rtcphone-go/services/hal/internal/halcore"
	"rtcphone-go/types"

	"go.bug.st/serial"
)

// StdioPort is the console name for the process's stdin/stdout.
const StdioPort = "stdio"

// serialPollInterval bounds each blocking Read so ctx is honoured.
const serialPollInterval = 100 * time.Millisecond

// OpenConsole opens the operator console: the process stdio or a serial
// device such as /dev/ttyUSB0.
func OpenConsole(cfg types.SerialConfig) (halcore.SerialPort, error) {
	if cfg.Port == "" || cfg.Port == StdioPort {
		return NewStreamPort(os.Stdin, os.Stdout), nil
	}
	mode, err := SerialMode(cfg)
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(serialPollInterval); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &serialPort{p: p}, nil
}

// SerialMode converts a SerialConfig into go.bug.st/serial settings.
func SerialMode(cfg types.SerialConfig) (*serial.Mode, error) {
	m := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: int(cfg.DataBits),
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if m.BaudRate <= 0 {
		m.BaudRate = 115200
	}
	if m.DataBits == 0 {
		m.DataBits = 8
	}
	switch cfg.StopBits {
	case 0, 1:
	case 2:
		m.StopBits = serial.TwoStopBits
	default:
		return nil, errors.New("invalid stop bits")
	}
	switch cfg.Parity {
	case types.ParityEven:
		m.Parity = serial.EvenParity
	case types.ParityOdd:
		m.Parity = serial.OddParity
	}
	return m, nil
}

// ---- serial device ----

type serialPort struct{ p serial.Port }

func (s *serialPort) Write(b []byte) (int, error) { return s.p.Write(b) }
func (s *serialPort) Close() error                { return s.p.Close() }

func (s *serialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.p.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// ---- generic stream (stdio, pipes in tests) ----

type chunk struct {
	b   []byte
	err error
}

// StreamPort adapts a blocking reader/writer pair to SerialPort. One reader
// goroutine feeds chunks; RecvSomeContext waits on it or ctx.
type StreamPort struct {
	w       io.Writer
	rx      chan chunk
	pending []byte
	err     error
	done    chan struct{}
}

func NewStreamPort(r io.Reader, w io.Writer) *StreamPort {
	sp := &StreamPort{w: w, rx: make(chan chunk, 4), done: make(chan struct{})}
	go sp.pump(r)
	return sp
}

func (s *StreamPort) pump(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		c := chunk{b: append([]byte(nil), buf[:n]...), err: err}
		select {
		case s.rx <- c:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *StreamPort) Write(b []byte) (int, error) { return s.w.Write(b) }

func (s *StreamPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case c := <-s.rx:
			s.pending, s.err = c.b, c.err
		}
	}
	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *StreamPort) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}
