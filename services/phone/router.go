package phone

import (
	"errors"
	"strings"

	"rtcphone-go/errcode"
	"rtcphone-go/services/hfp"
	"rtcphone-go/types"
	"rtcphone-go/x/fmtx"
	"rtcphone-go/x/strconvx"

	"github.com/google/shlex"
)

// HelpLines is the command list printed by "h" and at boot.
var HelpLines = []string{
	"[RTC_PHONE] Commands:",
	"  h             -> help",
	"  s             -> status",
	"  p <mac>       -> set HFP peer MAC (AA:BB:CC:DD:EE:FF)",
	"  b             -> connect HFP AG",
	"  x             -> disconnect HFP AG",
	"  a             -> answer incoming",
	"  e             -> end/reject call",
	"  m <number>    -> dial number",
	"  v <0..15>     -> set speaker volume",
}

// Command is one parsed operator line.
type Command struct {
	Name string
	Args []string
	Rest string // raw text after the name
	Line string
}

// ParseCommand splits a line into a name and shell-style arguments, so
// quotes may group words. Dial numbers are taken from Rest verbatim since
// '#' and '*' are ordinary digits there. An empty or blank line yields a
// zero Command.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, nil
	}
	name, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	cmd := Command{Name: name, Rest: rest, Line: line}
	if name == "m" || rest == "" {
		return cmd, nil
	}
	args, err := shlex.Split(rest)
	if err != nil {
		return cmd, errcode.UnknownCommand
	}
	cmd.Args = args
	return cmd, nil
}

// Router maps operator commands to controller actions. It keeps no state of
// its own.
type Router struct {
	ctl *Controller
}

func NewRouter(ctl *Controller) *Router { return &Router{ctl: ctl} }

// Handle runs one line and returns what the operator should see. Empty
// lines produce an OK reply with no lines.
func (r *Router) Handle(line string) types.Reply {
	cmd, err := ParseCommand(line)
	if err != nil {
		return refuse(err, unknownLine(cmd.Line))
	}
	if cmd.Name == "" {
		return types.Reply{OK: true}
	}
	return r.Execute(cmd)
}

// Execute dispatches a parsed command.
func (r *Router) Execute(cmd Command) types.Reply {
	switch cmd.Name {
	case "h":
		if len(cmd.Args) == 0 {
			return ok(HelpLines...)
		}
	case "s":
		if len(cmd.Args) == 0 {
			return ok(StatusLine(r.ctl.Snapshot()))
		}
	case "p":
		return r.setPeer(cmd.Args)
	case "b":
		if len(cmd.Args) == 0 {
			err := r.ctl.Connect()
			return r.result(err, "connect")
		}
	case "x":
		if len(cmd.Args) == 0 {
			return r.result(r.ctl.Disconnect(), "disconnect")
		}
	case "a":
		if len(cmd.Args) == 0 {
			return r.result(r.ctl.Answer(), "answer")
		}
	case "e":
		if len(cmd.Args) == 0 {
			op, err := r.ctl.End()
			return r.result(err, op)
		}
	case "m":
		if cmd.Rest == "" {
			break
		}
		return r.result(r.ctl.Dial(cmd.Rest), "dial("+cmd.Rest+")")
	case "v":
		return r.setVolume(cmd.Args)
	}
	return refuse(errcode.UnknownCommand, unknownLine(cmd.Line))
}

func (r *Router) setPeer(args []string) types.Reply {
	if len(args) != 1 {
		return refuse(errcode.InvalidAddress, refusal(errcode.InvalidAddress))
	}
	a, err := hfp.ParseAddress(args[0])
	if err != nil {
		return refuse(err, refusal(errcode.InvalidAddress))
	}
	r.ctl.SetPeer(a)
	return ok("[HFP] peer configured: " + a.String())
}

func (r *Router) setVolume(args []string) types.Reply {
	if len(args) != 1 {
		return refuse(errcode.InvalidVolume, refusal(errcode.InvalidVolume))
	}
	n, err := strconvx.Atoi(args[0])
	if err != nil {
		return refuse(errcode.InvalidVolume, refusal(errcode.InvalidVolume))
	}
	v, err := r.ctl.SetVolume(n)
	return r.result(err, fmtx.Sprintf("volume=%d", v))
}

// result turns an action outcome into the "[HFP] op -> OK" echo, or the
// refusal text for precondition errors.
func (r *Router) result(err error, op string) types.Reply {
	if err == nil {
		return ok("[HFP] " + op + " -> OK")
	}
	code := errcode.Of(err)
	if code == errcode.BackendFailed {
		cause := err
		if u := errors.Unwrap(err); u != nil {
			cause = u
		}
		return refuse(err, "[HFP] "+op+" -> "+cause.Error())
	}
	return refuse(err, refusal(code, err))
}

func ok(lines ...string) types.Reply { return types.Reply{OK: true, Lines: lines} }

func refuse(err error, line string) types.Reply {
	return types.Reply{Code: string(errcode.Of(err)), Lines: []string{line}}
}

func unknownLine(line string) string { return "[RTC_PHONE] unknown command: " + line }

// refusal is the operator text for a precondition or input error.
func refusal(c errcode.Code, errs ...error) string {
	switch c {
	case errcode.BackendNotReady:
		return "[HFP] stack not initialised"
	case errcode.BackendUnavailable:
		var e *errcode.E
		if len(errs) > 0 && errors.As(errs[0], &e) && e.Msg != "" {
			return "[HFP] unavailable: " + e.Msg
		}
		return "[HFP] unavailable"
	case errcode.PeerNotConfigured:
		return "[HFP] peer MAC not configured. Use: p <mac>"
	case errcode.NoIncomingCall:
		return "[HFP] no incoming call to answer"
	case errcode.NotConnected:
		return "[HFP] not connected"
	case errcode.EmptyNumber:
		return "[HFP] empty number"
	case errcode.InvalidAddress:
		return "[HFP] invalid MAC format. Ex: AA:BB:CC:DD:EE:FF"
	case errcode.InvalidVolume:
		return "[HFP] invalid volume. Use: v <0..15>"
	}
	return "[HFP] " + string(c)
}

// StatusLine is the one-line snapshot printed by "s".
func StatusLine(st types.PhoneStatus) string {
	return fmtx.Sprintf("[RTC_PHONE] hook=%s state=%s ready=%s hfp=%s audio=%s incoming=%s outgoing=%s active=%s peer=%s",
		types.HookName(st.OffHook), st.State.String(), yesNo(st.Ready),
		yesNo(st.Flags.Connected), yesNo(st.Flags.AudioConnected), yesNo(st.Flags.CallIncoming),
		yesNo(st.Flags.CallSetupOutgoing), yesNo(st.Flags.CallActive), st.Peer)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
