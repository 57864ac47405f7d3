package atlink

import (
	"rtcphone-go/services/hfp"
	"rtcphone-go/x/strconvx"
)

// handshake brings up the service level connection. Each step is queued
// from the completion of the previous one, so the AG sees them strictly in
// order and a failure stops the sequence.
type handshake struct {
	l      *Link
	values []int
}

func newHandshake(l *Link) *handshake { return &handshake{l: l} }

func (h *handshake) start() error {
	return h.l.enqueue(command{line: "AT+BRSF=" + strconvx.Itoa(hfFeatures), onDone: h.onFeatures})
}

func (h *handshake) fail(step string, err error) {
	h.l.mu.Lock()
	h.l.handshaking = false
	h.l.mu.Unlock()
	h.l.log.Warn("service level connection failed", "step", step, "err", err)
	h.l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnected})
}

func (h *handshake) next(step string, c command) {
	if err := h.l.enqueue(c); err != nil {
		h.fail(step, err)
	}
}

func (h *handshake) onFeatures(resp []string, err error) {
	if err != nil {
		h.fail("brsf", err)
		return
	}
	if v, ok := firstValue(resp, "+BRSF"); ok {
		h.l.log.Debug("AG features", "brsf", v)
	}
	h.l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnConnected})
	h.next("cind", command{line: "AT+CIND=?", onDone: h.onIndicatorNames})
}

func (h *handshake) onIndicatorNames(resp []string, err error) {
	if err != nil {
		h.fail("cind=?", err)
		return
	}
	for _, r := range resp {
		h.l.indicators = parseIndicatorNames(r)
	}
	h.next("cind?", command{line: "AT+CIND?", onDone: h.onIndicatorValues})
}

func (h *handshake) onIndicatorValues(resp []string, err error) {
	if err != nil {
		h.fail("cind?", err)
		return
	}
	for _, r := range resp {
		h.values = parseIndicatorValues(r)
	}
	h.next("cmer", command{line: "AT+CMER=3,0,0,1", onDone: h.onEventReporting})
}

func (h *handshake) onEventReporting(_ []string, err error) {
	if err != nil {
		h.fail("cmer", err)
		return
	}
	h.l.mu.Lock()
	h.l.slc = true
	h.l.handshaking = false
	h.l.mu.Unlock()
	h.l.log.Info("service level connection up")
	h.l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnSLCConnected})

	for i, v := range h.values {
		h.l.indicator(i+1, v)
	}

	// Caller id is optional; the SLC is up whether or not +CLIP gets enabled.
	clip := command{line: "AT+CLIP=1", onDone: func(_ []string, err error) {
		if err != nil {
			h.l.log.Info("AG refused caller id", "err", err)
		}
	}}
	if err := h.l.enqueue(clip); err != nil {
		h.l.log.Warn("caller id not requested", "err", err)
	}
}
