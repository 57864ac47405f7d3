package config

// Built-in profiles, one per board. They only carry what differs from
// Default.

const profileESP32 = `
board: esp32
console:
  port: stdio
  baud: 115200
`

// No Bluetooth Classic on the S3: the phone runs without telephony.
const profileESP32S3 = `
board: esp32s3
hfp:
  backend: none
`

const profilePico = `
board: pico
console:
  port: stdio
  baud: 115200
hfp:
  backend: at
  port: uart1
  baud: 115200
heartbeat:
  interval: 10s
`

const profilePicoPCF8574 = `
board: pico_pcf8574
console:
  port: stdio
hfp:
  backend: at
  port: uart1
  baud: 115200
heartbeat:
  interval: 10s
`

const profileRPi = `
board: rpi
hfp:
  backend: at
  port: /dev/rfcomm0
  command_timeout: 5s
heartbeat:
  interval: 30s
`

var embeddedProfiles = map[string][]byte{
	"esp32":        []byte(profileESP32),
	"esp32s3":      []byte(profileESP32S3),
	"pico":         []byte(profilePico),
	"pico_pcf8574": []byte(profilePicoPCF8574),
	"rpi":          []byte(profileRPi),
}

// EmbeddedProfileLookup resolves a board profile. Tests may replace it.
var EmbeddedProfileLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedProfiles[board]
	return b, ok
}
