package atlink

import "errors"

var (
	// ErrNoDialer is returned by Init when the Link was built without one.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrCommandFailed is the cause reported when the AG answers ERROR.
	ErrCommandFailed = errors.New("AG returned ERROR")

	// ErrTimeout is reported when the AG does not answer a command in time.
	ErrTimeout = errors.New("AG response timeout")

	// ErrLinkLost is returned once the transport has failed.
	ErrLinkLost = errors.New("transport lost")

	// ErrLineTooLong is reported when the AG sends an oversized line.
	ErrLineTooLong = errors.New("response line too long")
)
