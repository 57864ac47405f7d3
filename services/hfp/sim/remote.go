package sim

import (
	"context"
	"log/slog"
	"strings"

	"rtcphone-go/bus"
	"rtcphone-go/errcode"
	"rtcphone-go/types"
)

// TopicControl takes far-end commands as CommandLine payloads:
// "ring [number]", "answer" and "hangup". Replies go to ReplyTo.
var TopicControl = bus.T("hfp", "sim", "cmd")

// RemoteHelp lists the far-end commands.
var RemoteHelp = []string{
	"[SIM] far end: ring [number] | answer | hangup",
}

// Start subscribes to TopicControl before returning and then serves far-end
// commands until ctx ends.
func (b *Backend) Start(ctx context.Context, conn *bus.Connection) error {
	sub := conn.Subscribe(TopicControl)
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				b.serve(conn, msg)
			}
		}
	}()
	return nil
}

func (b *Backend) serve(conn *bus.Connection, msg *bus.Message) {
	var line string
	switch p := msg.Payload.(type) {
	case types.CommandLine:
		line = p.Line
	case string:
		line = p
	default:
		b.log.Warn("unexpected far-end payload", "topic", msg.Topic.String())
		return
	}
	reply := b.Remote(line)
	if !conn.Reply(msg, reply, false) {
		for _, l := range reply.Lines {
			b.log.Info(l)
		}
	}
}

// Remote runs one far-end command line.
func (b *Backend) Remote(line string) types.Reply {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var (
		err  error
		what string
	)
	switch name {
	case "ring":
		err, what = b.Ring(arg), "ring"
		if arg != "" {
			what += "(" + arg + ")"
		}
	case "answer":
		err, what = b.RemoteAnswer(), "answer"
	case "hangup":
		err, what = b.RemoteHangup(), "hangup"
	default:
		return types.Reply{Code: string(errcode.UnknownCommand), Lines: RemoteHelp}
	}
	if err != nil {
		b.log.Warn("far-end command failed", slog.String("cmd", what), slog.Any("err", err))
		return types.Reply{Code: string(errcode.BackendFailed), Lines: []string{"[SIM] " + what + " -> " + err.Error()}}
	}
	return types.Reply{OK: true, Lines: []string{"[SIM] " + what + " -> OK"}}
}
