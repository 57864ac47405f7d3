//go:build rp2040 || rp2350

package strconvx

// Same signatures as strconv, without its tables. Bases 2..36 only; no
// prefix detection.

type numError string

func (e numError) Error() string { return string(e) }

const (
	errSyntax numError = "invalid syntax"
	errRange  numError = "value out of range"
)

func Itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [24]byte
	n := len(buf)
	u := uint64(i)
	if i < 0 {
		u = uint64(-int64(i))
	}
	for u > 0 {
		n--
		buf[n] = byte('0' + u%10)
		u /= 10
	}
	if i < 0 {
		n--
		buf[n] = '-'
	}
	return string(buf[n:])
}

func Atoi(s string) (int, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int(u), nil
	}
	return int(u), nil
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, errSyntax
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	var max uint64 = 1<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint64
		switch {
		case '0' <= c && c <= '9':
			d = uint64(c - '0')
		case 'a' <= c && c <= 'z':
			d = uint64(c-'a') + 10
		case 'A' <= c && c <= 'Z':
			d = uint64(c-'A') + 10
		default:
			return 0, errSyntax
		}
		if d >= uint64(base) {
			return 0, errSyntax
		}
		if v > (max-d)/uint64(base) {
			return 0, errRange
		}
		v = v*uint64(base) + d
	}
	return v, nil
}
