package atlink

import (
	"context"
	"io"
)

// Transport is an open byte stream to the audio gateway's RFCOMM channel:
// a bound /dev/rfcommN, a UART to a Bluetooth module, or a test double.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens the Transport. It is called once, from Init.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=atlink
