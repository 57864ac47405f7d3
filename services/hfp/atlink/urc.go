package atlink

import (
	"strings"

	"rtcphone-go/services/hfp"
	"rtcphone-go/x/strconvx"
)

// handleURC turns one unsolicited line into events. Unknown lines, and
// everything received without an SLC, are logged and dropped. Runs on the
// loop goroutine.
func (l *Link) handleURC(line string) {
	if !l.connected() {
		l.log.Debug("dropped, no service level connection", "line", line)
		return
	}
	switch {
	case line == "RING":
		l.emit(hfp.Event{Kind: hfp.EventRing})
	case strings.HasPrefix(line, "+CIEV:"):
		args := splitArgs(line)
		if len(args) != 2 {
			break
		}
		idx, err1 := strconvx.Atoi(args[0])
		val, err2 := strconvx.Atoi(args[1])
		if err1 != nil || err2 != nil {
			break
		}
		l.indicator(idx, val)
		return
	case strings.HasPrefix(line, "+CLIP:"):
		args := splitArgs(line)
		if len(args) == 0 {
			break
		}
		l.emit(hfp.Event{Kind: hfp.EventCallerID, Number: strings.Trim(args[0], `"`)})
		return
	}
	l.log.Debug("ignored", "line", line)
}

// indicator reports a 1-based AG indicator update.
func (l *Link) indicator(idx, val int) {
	if idx < 1 || idx > len(l.indicators) {
		return
	}
	switch l.indicators[idx-1] {
	case "call":
		l.emit(hfp.Event{Kind: hfp.EventCallIndicator, Call: val})
	case "callsetup", "call_setup":
		if val < 0 || val > int(hfp.SetupOutgoingAlerting) {
			return
		}
		l.emit(hfp.Event{Kind: hfp.EventCallSetup, Setup: hfp.CallSetup(val)})
	}
}

// splitArgs returns the comma separated fields after "+XXX:".
func splitArgs(line string) []string {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseIndicatorNames reads the AT+CIND=? test response:
//
//	+CIND: ("service",(0,1)),("call",(0,1)),("callsetup",(0-3))
func parseIndicatorNames(line string) []string {
	parts := strings.Split(line, `"`)
	var names []string
	for i := 1; i < len(parts); i += 2 {
		names = append(names, strings.ToLower(parts[i]))
	}
	return names
}

// parseIndicatorValues reads the AT+CIND? response: "+CIND: 1,0,0".
func parseIndicatorValues(line string) []int {
	args := splitArgs(line)
	vals := make([]int, 0, len(args))
	for _, a := range args {
		v, err := strconvx.Atoi(a)
		if err != nil {
			return nil
		}
		vals = append(vals, v)
	}
	return vals
}

func firstValue(resp []string, prefix string) (string, bool) {
	for _, r := range resp {
		if strings.HasPrefix(r, prefix) {
			if args := splitArgs(r); len(args) > 0 {
				return args[0], true
			}
		}
	}
	return "", false
}
