package phone

// DebounceMs is the minimum time between two accepted hook transitions.
const DebounceMs = 25

// HookSignal is the debouncer's view of the hook input.
type HookSignal struct {
	Raw        bool
	Stable     bool
	LastEdgeMs uint32
}

// Debouncer turns the sampled hook level into a stable one. It is polled,
// not edge driven, so a pulse shorter than the poll period can be missed.
type Debouncer struct {
	window uint32
	sig    HookSignal
}

// NewDebouncer starts stable at initial. windowMs <= 0 selects DebounceMs.
func NewDebouncer(initial bool, windowMs int) *Debouncer {
	w := uint32(DebounceMs)
	if windowMs > 0 {
		w = uint32(windowMs)
	}
	return &Debouncer{window: w, sig: HookSignal{Raw: initial, Stable: initial}}
}

// Observe feeds one sample. It returns the new stable level and true only
// when raw differs from the stable level and at least the window has passed
// since the last accepted transition. nowMs may wrap.
func (d *Debouncer) Observe(raw bool, nowMs uint32) (bool, bool) {
	d.sig.Raw = raw
	if raw == d.sig.Stable || nowMs-d.sig.LastEdgeMs < d.window {
		return d.sig.Stable, false
	}
	d.sig.Stable = raw
	d.sig.LastEdgeMs = nowMs
	return raw, true
}

func (d *Debouncer) Signal() HookSignal { return d.sig }
