package phone

import "rtcphone-go/bus"

// Bus topics owned by the phone service.
var (
	TopicState  = bus.T("phone", "state")           // retained types.PhoneStatus
	TopicHook   = bus.T("phone", "hook")            // retained types.HookValue
	TopicCmd    = bus.T("phone", "cmd")             // types.CommandLine or string, reply types.Reply
	TopicNotice = bus.T("phone", "notice")          // types.Notice
	TopicCaller = bus.T("phone", "event", "caller") // types.CallerID
)
