package phone

import "testing"

func TestDebouncer_AcceptsAfterWindow(t *testing.T) {
	d := NewDebouncer(false, 25)

	if _, changed := d.Observe(true, 10); changed {
		t.Fatal("edge inside the window must be ignored")
	}
	if st, changed := d.Observe(true, 25); !changed || !st {
		t.Fatalf("Observe at window = (%v,%v), want (true,true)", st, changed)
	}
	if got := d.Signal(); !got.Stable || got.LastEdgeMs != 25 {
		t.Fatalf("signal = %+v", got)
	}
	// Bounce back inside the window after the accepted edge.
	if _, changed := d.Observe(false, 40); changed {
		t.Fatal("bounce within 25 ms accepted")
	}
	if st, changed := d.Observe(false, 50); !changed || st {
		t.Fatalf("Observe = (%v,%v), want (false,true)", st, changed)
	}
}

func TestDebouncer_SameLevelNeverChanges(t *testing.T) {
	d := NewDebouncer(true, 25)
	for now := uint32(0); now < 500; now += 10 {
		if _, changed := d.Observe(true, now); changed {
			t.Fatalf("changed at %d with a constant input", now)
		}
	}
	if d.Signal().LastEdgeMs != 0 {
		t.Fatal("LastEdgeMs moved without a transition")
	}
}

func TestDebouncer_ClockWrap(t *testing.T) {
	d := NewDebouncer(false, 25)
	start := ^uint32(0) - 5
	if _, changed := d.Observe(true, start); !changed {
		t.Fatal("first edge should be accepted")
	}
	// 15 ms later across the wrap.
	if _, changed := d.Observe(false, 9); changed {
		t.Fatal("wrap made a short interval look long")
	}
	if _, changed := d.Observe(false, 20); !changed {
		t.Fatal("26 ms across the wrap should be accepted")
	}
}

func TestDebouncer_DefaultWindow(t *testing.T) {
	d := NewDebouncer(false, 0)
	if _, changed := d.Observe(true, DebounceMs-1); changed {
		t.Fatal("default window not applied")
	}
	if _, changed := d.Observe(true, DebounceMs); !changed {
		t.Fatal("default window too long")
	}
}
