package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// ParseParity accepts "none", "even", "odd" and the empty string (none).
func ParseParity(s string) (Parity, bool) {
	switch s {
	case "", "none":
		return ParityNone, true
	case "even":
		return ParityEven, true
	case "odd":
		return ParityOdd, true
	}
	return ParityNone, false
}

func (p Parity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Parity) UnmarshalText(b []byte) error {
	v, ok := ParseParity(string(b))
	if !ok {
		return errBadParity
	}
	*p = v
	return nil
}

// SerialConfig describes a serial line (console or AT link).
type SerialConfig struct {
	Port     string `yaml:"port" json:"port"`
	Baud     int    `yaml:"baud" json:"baud"`
	DataBits uint8  `yaml:"data_bits,omitempty" json:"data_bits,omitempty"`
	StopBits uint8  `yaml:"stop_bits,omitempty" json:"stop_bits,omitempty"`
	Parity   Parity `yaml:"parity,omitempty" json:"parity,omitempty"`
}

type parityError struct{}

func (parityError) Error() string { return "invalid parity" }

var errBadParity error = parityError{}
