//go:build rp2040 || rp2350

package fmtx

import "rtcphone-go/x/strconvx"

// Sprintf supports %s %d %v and %%, which is all the console lines use.
// Width and flags are not supported.
func Sprintf(format string, a ...any) string {
	buf := make([]byte, 0, len(format)+16)
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			buf = append(buf, c)
			continue
		}
		i++
		verb := format[i]
		if verb == '%' {
			buf = append(buf, '%')
			continue
		}
		if ai >= len(a) {
			buf = append(buf, "%!"...)
			buf = append(buf, verb)
			buf = append(buf, "(MISSING)"...)
			continue
		}
		buf = appendArg(buf, a[ai])
		ai++
	}
	return string(buf)
}

func appendArg(buf []byte, v any) []byte {
	switch x := v.(type) {
	case string:
		return append(buf, x...)
	case []byte:
		return append(buf, x...)
	case interface{ String() string }:
		return append(buf, x.String()...)
	case int:
		return append(buf, strconvx.Itoa(x)...)
	case int8:
		return append(buf, strconvx.Itoa(int(x))...)
	case int16:
		return append(buf, strconvx.Itoa(int(x))...)
	case int32:
		return append(buf, strconvx.Itoa(int(x))...)
	case int64:
		return append(buf, strconvx.Itoa(int(x))...)
	case uint8:
		return append(buf, strconvx.Itoa(int(x))...)
	case uint16:
		return append(buf, strconvx.Itoa(int(x))...)
	case uint32:
		return append(buf, strconvx.Itoa(int(x))...)
	case bool:
		if x {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case error:
		return append(buf, x.Error()...)
	}
	return append(buf, "<?>"...)
}
