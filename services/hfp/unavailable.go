package hfp

import (
	"context"

	"rtcphone-go/errcode"
)

// Unavailable stands in on targets that cannot run HFP at all (no Bluetooth
// Classic, or no backend configured). Every call fails with
// errcode.BackendUnavailable and no event is ever delivered.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err(op string) error {
	return &errcode.E{C: errcode.BackendUnavailable, Op: op, Msg: u.Reason}
}

func (u Unavailable) Init(context.Context) error        { return u.err("init") }
func (u Unavailable) Connect(Address) error             { return u.err("connect") }
func (u Unavailable) Disconnect(Address) error          { return u.err("disconnect") }
func (u Unavailable) Answer() error                     { return u.err("answer") }
func (u Unavailable) Reject() error                     { return u.err("reject") }
func (u Unavailable) Terminate() error                  { return u.err("terminate") }
func (u Unavailable) Dial(string) error                 { return u.err("dial") }
func (u Unavailable) SetVolume(VolumeTarget, int) error { return u.err("volume") }
func (u Unavailable) Events() <-chan Event              { return nil }
func (u Unavailable) Close() error                      { return nil }
