// Package atlink implements the Hands-Free side of HFP over an AT command
// channel. It runs the service level connection handshake, turns the AG's
// unsolicited result codes into hfp.Events and queues call-control commands.
package atlink

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rtcphone-go/services/hfp"
	"rtcphone-go/x/strconvx"
)

const (
	DefaultCommandTimeout = 3 * time.Second

	// HF supported features sent in AT+BRSF: CLI presentation (bit 2) and
	// remote volume control (bit 4).
	hfFeatures = 1<<2 | 1<<4

	maxLine    = 512
	queueDepth = 16
	eventDepth = 64
)

// Option configures a Link.
type Option func(*Link)

func WithCommandTimeout(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Link) {
		if log != nil {
			l.log = log
		}
	}
}

// Link is an hfp.Backend speaking AT commands. After Init, one goroutine
// owns the transport: it writes one command at a time and is the only
// reader, so unsolicited codes are never lost between commands.
type Link struct {
	dialer  Dialer
	timeout time.Duration
	log     *slog.Logger

	events chan hfp.Event
	reqs   chan command

	mu          sync.Mutex
	t           Transport
	ready       bool
	slc         bool
	handshaking bool // SLC handshake in progress
	lost        bool
	closed      bool
	cancel      context.CancelFunc
	done        chan struct{}

	// Owned by the loop goroutine.
	indicators []string // AG indicator names; "+CIEV: 1" is indicators[0]
}

// command is one queued AT line. onDone runs on the loop goroutine.
type command struct {
	line   string
	onDone func(resp []string, err error)
}

func New(d Dialer, opts ...Option) *Link {
	l := &Link{
		dialer:  d,
		timeout: DefaultCommandTimeout,
		log:     slog.Default(),
		events:  make(chan hfp.Event, eventDepth),
		reqs:    make(chan command, queueDepth),
	}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.With("backend", "at")
	return l
}

// Init opens the transport and starts the loop. The SLC is not brought up
// until Connect.
func (l *Link) Init(ctx context.Context) error {
	if l.dialer == nil {
		return ErrNoDialer
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return hfp.ErrClosed
	}
	if l.ready {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	t, err := l.dialer.Dial(ctx)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	l.mu.Lock()
	l.t = t
	l.ready = true
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	lines := make(chan string, queueDepth)
	readErr := make(chan error, 1)
	go l.read(loopCtx, t, lines, readErr)
	go l.loop(loopCtx, t, lines, readErr)
	return nil
}

func (l *Link) Events() <-chan hfp.Event { return l.events }

// Connect runs the SLC handshake. The AG address is implied by the
// transport, so peer is only logged.
func (l *Link) Connect(peer hfp.Address) error {
	if err := l.usable(); err != nil {
		return err
	}
	l.mu.Lock()
	busy := l.slc || l.handshaking
	if !busy {
		l.handshaking = true
	}
	l.mu.Unlock()
	if busy {
		return nil
	}
	l.log.Info("connecting", "peer", peer.String())
	l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnConnecting})

	if err := newHandshake(l).start(); err != nil {
		l.mu.Lock()
		l.handshaking = false
		l.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect drops the SLC and turns the AG's indicator reporting off. The
// transport stays open for the next Connect; anything the AG still sends
// meanwhile is dropped.
func (l *Link) Disconnect(hfp.Address) error {
	if err := l.usable(); err != nil {
		return err
	}
	l.mu.Lock()
	was := l.slc
	l.slc = false
	l.mu.Unlock()
	if !was {
		return nil
	}
	l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnecting})
	err := l.enqueue(command{line: "AT+CMER=3,0,0,0", onDone: func(_ []string, err error) {
		if err != nil {
			l.log.Warn("AG kept event reporting on", "err", err)
		}
		l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnected})
	}})
	if err != nil {
		l.log.Warn("event reporting off not sent", "err", err)
		l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnected})
	}
	return nil
}

func (l *Link) Answer() error    { return l.send("ATA") }
func (l *Link) Reject() error    { return l.send("AT+CHUP") }
func (l *Link) Terminate() error { return l.send("AT+CHUP") }

func (l *Link) Dial(number string) error {
	if number == "" {
		return hfp.ErrNoCall
	}
	return l.send("ATD" + number + ";")
}

func (l *Link) SetVolume(target hfp.VolumeTarget, level int) error {
	if level < 0 || level > hfp.MaxVolume {
		return errors.New("volume out of range")
	}
	cmd := "AT+VGS="
	if target == hfp.VolumeMicrophone {
		cmd = "AT+VGM="
	}
	return l.send(cmd + strconvx.Itoa(level))
}

// Close stops the loop, closes the transport and then the event channel.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.ready = false
	cancel, done, t := l.cancel, l.done, l.t
	l.mu.Unlock()

	var err error
	if t != nil {
		err = t.Close()
	}
	if cancel != nil {
		cancel()
		<-done
	}
	close(l.events)
	return err
}

// ---- request side ----

func (l *Link) usable() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		return hfp.ErrClosed
	case l.lost:
		return ErrLinkLost
	case !l.ready:
		return hfp.ErrNotInitialized
	}
	return nil
}

func (l *Link) connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slc
}

func (l *Link) send(line string) error {
	if err := l.usable(); err != nil {
		return err
	}
	if !l.connected() {
		return hfp.ErrNotConnected
	}
	return l.enqueue(command{line: line, onDone: func(_ []string, err error) {
		if err != nil {
			l.log.Warn("command failed", "cmd", line, "err", err)
		}
	}})
}

// enqueue never blocks.
func (l *Link) enqueue(c command) error {
	select {
	case l.reqs <- c:
		return nil
	default:
		return hfp.ErrBusy
	}
}

func (l *Link) emit(ev hfp.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.events <- ev:
	default:
		l.log.Warn("event dropped", "kind", ev.Kind.String())
	}
}

// ---- loop ----

func (l *Link) read(ctx context.Context, t Transport, lines chan<- string, errs chan<- error) {
	defer close(lines)
	sc := bufio.NewScanner(t)
	sc.Buffer(make([]byte, 0, 128), maxLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
	err := sc.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		err = ErrLineTooLong
	}
	if err == nil {
		err = ErrLinkLost
	}
	errs <- err
}

func (l *Link) loop(ctx context.Context, t Transport, lines <-chan string, readErr <-chan error) {
	defer close(l.done)

	var (
		queue    []command
		inflight *command
		resp     []string
		timer    = time.NewTimer(time.Hour)
	)
	timer.Stop()
	defer timer.Stop()

	finish := func(err error) {
		c := inflight
		r := resp
		inflight, resp = nil, nil
		timer.Stop()
		if c.onDone != nil {
			c.onDone(r, err)
		}
	}

	for {
		if inflight == nil && len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			if _, err := t.Write([]byte(c.line + "\r")); err != nil {
				if c.onDone != nil {
					c.onDone(nil, err)
				}
				continue
			}
			l.log.Debug("tx", "cmd", c.line)
			inflight = &c
			timer.Reset(l.timeout)
		}

		select {
		case <-ctx.Done():
			return

		case c := <-l.reqs:
			queue = append(queue, c)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			l.log.Debug("rx", "line", line)
			switch {
			case line == "OK" && inflight != nil:
				finish(nil)
			case isError(line) && inflight != nil:
				finish(ErrCommandFailed)
			case strings.HasPrefix(line, "+") && inflight != nil && answers(inflight.line, line):
				resp = append(resp, line)
			case isEcho(inflight, line):
			default:
				l.handleURC(line)
			}

		case <-timer.C:
			if inflight != nil {
				finish(ErrTimeout)
			}

		case err := <-readErr:
			l.log.Error("link lost", "err", err)
			l.mu.Lock()
			l.lost = true
			was := l.slc
			l.slc = false
			l.mu.Unlock()
			if inflight != nil {
				finish(ErrLinkLost)
			}
			for _, c := range queue {
				if c.onDone != nil {
					c.onDone(nil, ErrLinkLost)
				}
			}
			queue = nil
			if was {
				l.emit(hfp.Event{Kind: hfp.EventConnection, Conn: hfp.ConnDisconnected})
			}
			return
		}
	}
}

func isError(line string) bool {
	return line == "ERROR" || strings.HasPrefix(line, "+CME ERROR")
}

func isEcho(c *command, line string) bool { return c != nil && line == c.line }

// answers reports whether an information line belongs to the command in
// flight rather than being unsolicited. "+CIND: ..." answers AT+CIND? and
// AT+CIND=?, "+BRSF: n" answers AT+BRSF.
func answers(cmd, line string) bool {
	name, _, _ := strings.Cut(line, ":")
	if name == "" || !strings.HasPrefix(cmd, "AT"+name) {
		return false
	}
	return strings.HasSuffix(cmd, "?") || name == "+BRSF"
}
