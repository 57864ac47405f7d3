package hfp

import "errors"

var (
	// ErrNotInitialized is returned by actions issued before Init succeeded.
	ErrNotInitialized = errors.New("hfp stack not initialized")

	// ErrNotConnected is returned when an action needs a service level
	// connection and there is none.
	ErrNotConnected = errors.New("no service level connection")

	// ErrNoCall is returned by Answer, Reject and Terminate when the AG has
	// no matching call.
	ErrNoCall = errors.New("no matching call")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("backend closed")

	// ErrBusy is returned when a request is still outstanding and the
	// queue is full.
	ErrBusy = errors.New("request queue full")
)
