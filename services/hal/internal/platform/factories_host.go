// services/hal/internal/platform/factories_host.go
//go:build !rp2040 && !rp2350 && !periph

package platform

import "rtcphone-go/services/hal/internal/halcore"

// Name identifies the pin backend in boot logs.
const Name = "host"

// DefaultPinFactory provides simulated GPIO. The hook input idles on-hook
// because ConfigureInput with a pull-up reads high.
func DefaultPinFactory() (halcore.PinFactory, error) { return NewHostPinFactory(), nil }

// DefaultI2CFactory creates inert host I²C buses.
func DefaultI2CFactory() (halcore.I2CBusFactory, error) { return NewHostI2CFactory(), nil }
