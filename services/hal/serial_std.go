//go:build !rp2040 && !rp2350

package hal

import (
	"go.bug.st/serial"

	"rtcphone-go/services/hal/internal/platform"
	"rtcphone-go/types"
)

// SerialMode converts cfg into go.bug.st/serial settings for callers that
// open their own ports, such as the AT link dialer.
func SerialMode(cfg types.SerialConfig) (*serial.Mode, error) { return platform.SerialMode(cfg) }
