//go:build rp2040 || rp2350

package app

import (
	"rtcphone-go/services/hfp/atlink"
	"rtcphone-go/types"
)

func atDialer(cfg types.SerialConfig) atlink.Dialer { return atlink.PortDialer{Config: cfg} }
