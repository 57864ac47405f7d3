//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"rtcphone-go/services/hal/internal/halcore"
)

func TestFakePinPullUpIdlesHigh(t *testing.T) {
	f := NewHostPinFactory()
	gp, ok := f.ByNumber(27)
	if !ok {
		t.Fatal("ByNumber(27) failed")
	}
	_ = gp.ConfigureInput(halcore.PullUp)
	if !gp.Get() {
		t.Fatal("pulled-up input should read high")
	}
	f.Pin(27).Drive(false)
	if gp.Get() {
		t.Fatal("Drive(false) not visible to Get")
	}
	if _, ok := f.ByNumber(-1); ok {
		t.Fatal("negative pin accepted")
	}
}

func TestFakePinCountsWrites(t *testing.T) {
	p := NewFakePin(2)
	_ = p.ConfigureOutput(false)
	p.Set(true)
	p.Set(true)
	if p.Writes() != 2 || !p.IsOutput() || !p.Get() {
		t.Fatalf("writes=%d out=%v level=%v", p.Writes(), p.IsOutput(), p.Get())
	}
}

func TestHostI2CLatchReadsBack(t *testing.T) {
	bus := &HostI2C{}
	if err := bus.Tx(0x20, []byte{0xA5}, nil); err != nil {
		t.Fatal(err)
	}
	r := make([]byte, 1)
	_ = bus.Tx(0x20, nil, r)
	if r[0] != 0xA5 || bus.Writes != 1 {
		t.Fatalf("read %#x writes %d", r[0], bus.Writes)
	}
}

func TestStreamPortDeliversThenEOF(t *testing.T) {
	sp := NewStreamPort(strings.NewReader("s\nh\n"), io.Discard)
	defer sp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var got []byte
	buf := make([]byte, 2)
	for {
		n, err := sp.RecvSomeContext(ctx, buf)
		got = append(got, buf[:n]...)
		if err != nil {
			if err != io.EOF {
				t.Fatalf("unexpected error: %v", err)
			}
			break
		}
	}
	if string(got) != "s\nh\n" {
		t.Fatalf("got %q", got)
	}
}

func TestStreamPortHonoursContext(t *testing.T) {
	pr, _ := io.Pipe()
	sp := NewStreamPort(pr, io.Discard)
	defer sp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := sp.RecvSomeContext(ctx, make([]byte, 8)); err == nil {
		t.Fatal("expected context error")
	}
}
