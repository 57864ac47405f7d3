// Package console bridges the operator's serial line and the bus: each
// received line becomes a phone command, and replies and notices are
// written back one per line.
package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"rtcphone-go/bus"
	"rtcphone-go/services/phone"
	"rtcphone-go/types"
)

// ReplyTopic receives the replies to commands typed on the console.
var ReplyTopic = bus.T("console", "reply")

const (
	DefaultMaxLine = 128
	readChunk      = 64
)

// Port is the console side of a UART or stdio.
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

type Service struct {
	port    Port
	conn    *bus.Connection
	log     *slog.Logger
	maxLine int
	routes  []route

	wmu sync.Mutex
}

// route sends lines starting with a keyword to another topic.
type route struct {
	prefix string
	topic  bus.Topic
}

func New(port Port, conn *bus.Connection, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{port: port, conn: conn, log: log.With("service", "console"), maxLine: DefaultMaxLine}
}

// Route sends lines whose first word is prefix to topic, with the prefix
// removed, instead of to the phone. Call before Run or Start.
func (s *Service) Route(prefix string, topic bus.Topic) {
	s.routes = append(s.routes, route{prefix: prefix, topic: topic})
}

// Run reads commands and prints output until ctx ends or the port fails.
func (s *Service) Run(ctx context.Context) error {
	notices, replies := s.subscribe()
	return s.loop(ctx, notices, replies)
}

// Start subscribes before returning, so notices published right after it
// are printed, then runs the console in a goroutine. The channel yields
// Run's result.
func (s *Service) Start(ctx context.Context) <-chan error {
	notices, replies := s.subscribe()
	done := make(chan error, 1)
	go func() { done <- s.loop(ctx, notices, replies) }()
	return done
}

func (s *Service) subscribe() (notices, replies *bus.Subscription) {
	return s.conn.Subscribe(phone.TopicNotice), s.conn.Subscribe(ReplyTopic)
}

func (s *Service) loop(ctx context.Context, notices, replies *bus.Subscription) error {
	defer s.conn.Unsubscribe(notices)
	defer s.conn.Unsubscribe(replies)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErr := make(chan error, 1)
	go func() { readErr <- s.readLines(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("console read failed", "err", err)
				return err
			}
			return nil
		case m, ok := <-notices.Channel():
			if !ok {
				return nil
			}
			if n, ok := m.Payload.(types.Notice); ok {
				s.Println(n.Text)
			}
		case m, ok := <-replies.Channel():
			if !ok {
				return nil
			}
			if r, ok := m.Payload.(types.Reply); ok {
				for _, l := range r.Lines {
					s.Println(l)
				}
			}
		}
	}
}

// Println writes one line terminated by CRLF.
func (s *Service) Println(line string) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.port.Write([]byte(line + "\r\n")); err != nil {
		s.log.Warn("console write failed", "err", err)
	}
}

// readLines splits input on CR or LF. Blank lines are dropped and long
// lines are cut at maxLine.
func (s *Service) readLines(ctx context.Context) error {
	buf := make([]byte, readChunk)
	line := make([]byte, 0, s.maxLine)
	for {
		n, err := s.port.RecvSomeContext(ctx, buf)
		for _, b := range buf[:n] {
			switch b {
			case '\r', '\n':
				if len(line) > 0 {
					s.submit(string(line))
					line = line[:0]
				}
			default:
				if len(line) < s.maxLine {
					line = append(line, b)
				}
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *Service) submit(line string) {
	topic := phone.TopicCmd
	for _, r := range s.routes {
		if line == r.prefix || strings.HasPrefix(line, r.prefix+" ") {
			topic, line = r.topic, strings.TrimSpace(line[len(r.prefix):])
			break
		}
	}
	msg := s.conn.NewMessage(topic, types.CommandLine{Line: line}, false)
	msg.ReplyTo = ReplyTopic
	s.conn.Publish(msg)
}
