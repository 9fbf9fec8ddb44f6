// File: channel/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package channel owns one message-level connection to the loopback
// debugger: the TCP stream, the opening handshake, and the frame codec,
// reassembled into whole text/binary messages. It is adapted from the
// teacher's client façade (client/facade.go, client/client.go): those types
// drove a batch, zero-copy send/recv loop tuned for a stress-test
// generating many small frames; a CDP message channel instead carries one
// JSON document per logical call or event, so this version drops batching
// and buffer pooling in favor of straightforward message reassembly with
// replaceable callback slots that a session multiplexer installs once.
//
// The channel itself never spawns a reader goroutine: Poll and PollAll are
// exposed so the enclosing component — a test driving it inline, or the
// session multiplexer's own dedicated task — chooses whether reading
// happens synchronously or in the background (spec.md §4.D, §5).
package channel

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/corvidlabs/cdpgo/cdperr"
	"github.com/corvidlabs/cdpgo/protocol"
	"github.com/corvidlabs/cdpgo/transport"
)

// MessageHandler receives one reassembled application message: text frames
// decode to isText=true, binary frames to isText=false.
type MessageHandler func(payload []byte, isText bool)

// CloseHandler is invoked exactly once when the channel closes, whether due
// to a remote close, a protocol error, or a local Close call.
type CloseHandler func(err error)

// Config tunes dial and read/write behavior.
type Config struct {
	DialTimeout       time.Duration
	WriteTimeout      time.Duration
	ReadIdleTimeout   time.Duration // initial Poll timeout; PollAll backs this off adaptively
	MaxMessageSize    int64
	HeartbeatInterval time.Duration // 0 disables automatic ping
}

// DefaultConfig matches spec defaults: generous timeouts suited to a local
// loopback peer, a 64 MiB message cap, and a 30s heartbeat.
func DefaultConfig() Config {
	return Config{
		DialTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Second,
		ReadIdleTimeout:   time.Second,
		MaxMessageSize:    protocol.DefaultMaxMessageSize,
		HeartbeatInterval: 30 * time.Second,
	}
}

// pollMinInterval and pollMaxInterval bound PollAll's adaptive backoff: it
// resumes at the minimum interval immediately after a frame arrives, and
// doubles up to the cap while idle (spec.md §5).
const (
	pollMinInterval = time.Millisecond
	pollMaxInterval = 50 * time.Millisecond
)

// Channel is one message-level connection. All exported methods are safe
// for concurrent use, except Poll/PollAll: exactly one goroutine may drive
// reads at a time, per the single-reader-task model the rest of this
// package assumes.
type Channel struct {
	cfg    Config
	stream *transport.Stream

	mu        sync.Mutex
	onMessage MessageHandler
	onClose   CloseHandler
	closed    bool
	closeOnce sync.Once
	closeErr  error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Fragment reassembly state. Touched only by whichever goroutine is
	// currently calling Poll/PollAll.
	fragments        [][]byte
	fragmentedOpcode protocol.Opcode
	fragTotal        int64
}

// Dial opens a TCP connection to target, performs the opening handshake,
// and returns a Channel with no reader yet driving it — call SetHandlers,
// then Poll or PollAll, once the caller has installed its callbacks, so no
// message is ever delivered to a nil handler.
func Dial(target string, cfg Config) (*Channel, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, cdperr.Wrap(cdperr.KindConnection, "parse target url", err)
	}
	host := u.Host
	path := u.RequestURI()
	if path == "" {
		path = "/"
	}

	stream, err := transport.Dial(cfg.DialTimeout, host)
	if err != nil {
		return nil, err
	}

	if _, err := protocol.Handshake(stream, protocol.HandshakeRequest{Host: host, Path: path}, cfg.DialTimeout); err != nil {
		stream.Close()
		if protocol.ErrHandshakeRejected(err) {
			return nil, cdperr.Wrap(cdperr.KindHandshakeRejected, "handshake rejected for "+target, err)
		}
		return nil, cdperr.Wrap(cdperr.KindConnection, "handshake", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{cfg: cfg, stream: stream, ctx: ctx, cancel: cancel}, nil
}

// SetHandlers installs the message and close callbacks. It must be called
// before Start/Poll/PollAll, and is not safe to call concurrently with them.
func (c *Channel) SetHandlers(onMessage MessageHandler, onClose CloseHandler) {
	c.mu.Lock()
	c.onMessage = onMessage
	c.onClose = onClose
	c.mu.Unlock()
}

// Start launches the heartbeat task, if configured. It does not start
// reading frames — call Poll or PollAll for that, from whichever goroutine
// the caller wants driving reads.
func (c *Channel) Start() {
	if c.cfg.HeartbeatInterval > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop()
	}
}

// SendText masks and writes a single complete text message.
func (c *Channel) SendText(payload []byte) error {
	return c.sendFrame(protocol.OpcodeText, payload)
}

// SendBinary masks and writes a single complete binary message.
func (c *Channel) SendBinary(payload []byte) error {
	return c.sendFrame(protocol.OpcodeBinary, payload)
}

// Ping sends an unsolicited ping control frame.
func (c *Channel) Ping() error {
	return c.sendFrame(protocol.OpcodePing, nil)
}

func (c *Channel) sendFrame(opcode protocol.Opcode, payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return cdperr.New(cdperr.KindConnection, "channel closed")
	}

	encoded, err := protocol.EncodeClientFrame(true, opcode, payload)
	if err != nil {
		return cdperr.Wrap(cdperr.KindProtocolError, "encode frame", err)
	}
	if err := c.stream.Send(encoded, c.cfg.WriteTimeout); err != nil {
		return err
	}
	return nil
}

// Close idempotently tears down the stream and stops the heartbeat task,
// invoking the close handler exactly once with the given reason. It also
// unblocks any goroutine in Poll/PollAll, which observes the canceled
// context on its next iteration.
func (c *Channel) Close() error {
	return c.closeWith(cdperr.New(cdperr.KindConnection, "closed by caller"))
}

func (c *Channel) closeWith(reason error) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.closeErr = reason
		handler := c.onClose
		c.mu.Unlock()

		c.cancel()
		err = c.stream.Close()
		c.wg.Wait()
		if handler != nil {
			handler(reason)
		}
	})
	return err
}

// Poll blocks for up to timeout waiting for one frame, processes it, and
// reports whether a frame was read. Control frames are answered or handled
// internally and never reach the message handler. A non-nil error means the
// channel has been closed (by a protocol violation, a remote close, or a
// transport failure) and the caller should stop polling.
func (c *Channel) Poll(timeout time.Duration) (bool, error) {
	select {
	case <-c.ctx.Done():
		return false, cdperr.New(cdperr.KindConnection, "channel closed")
	default:
	}

	frame, err := c.readFrame(timeout)
	if err != nil {
		go c.closeWith(err)
		return false, err
	}
	if frame == nil {
		return false, nil
	}

	if frame.Opcode.IsControl() {
		if !c.handleControl(frame) {
			return true, cdperr.New(cdperr.KindConnection, "remote closed connection")
		}
		return true, nil
	}

	if err := c.reassemble(frame); err != nil {
		return true, err
	}
	return true, nil
}

// PollAll blocks, repeatedly calling Poll with an adaptive idle backoff —
// resuming at pollMinInterval immediately after a frame arrives, doubling
// up to pollMaxInterval while idle — until the channel closes. It is meant
// to be run in a dedicated goroutine the caller owns (the session
// multiplexer's reader task); a synchronous caller that only wants one
// frame at a time should call Poll directly instead.
func (c *Channel) PollAll(initialTimeout time.Duration) error {
	interval := initialTimeout
	if interval <= 0 {
		interval = pollMinInterval
	}
	for {
		select {
		case <-c.ctx.Done():
			return nil
		default:
		}

		progressed, err := c.Poll(interval)
		if err != nil {
			return err
		}
		if progressed {
			interval = pollMinInterval
			continue
		}
		interval *= 2
		if interval > pollMaxInterval {
			interval = pollMaxInterval
		}
	}
}

func (c *Channel) readFrame(timeout time.Duration) (*protocol.Frame, error) {
	frame, err := protocol.ReadServerFrame(deadlineReader{c.stream, timeout}, c.cfg.MaxMessageSize)
	if err != nil {
		if cdperr.Is(err, cdperr.KindTimeout) {
			return nil, nil
		}
		if protocol.IsProtocolFrameError(err) {
			return nil, cdperr.Wrap(cdperr.KindProtocolError, "read frame", err)
		}
		return nil, cdperr.Wrap(cdperr.KindConnection, "read frame", err)
	}
	return frame, nil
}

// reassemble folds frame into the open fragment sequence, delivering the
// message to onMessage once a FIN frame completes it. A non-continuation
// frame arriving while a sequence is already open, or a continuation frame
// arriving with none open, is a protocol error (spec.md §4.C, invariant 4):
// the opcode of the delivered message must be the opcode of the first
// frame, so accepting a second data frame mid-sequence would silently
// corrupt the reassembled payload instead of rejecting it.
func (c *Channel) reassemble(frame *protocol.Frame) error {
	if frame.Opcode != protocol.OpcodeContinuation {
		if len(c.fragments) > 0 {
			err := cdperr.New(cdperr.KindProtocolError, "non-continuation frame received mid-fragment")
			go c.closeWith(err)
			return err
		}
		c.fragmentedOpcode = frame.Opcode
	} else if len(c.fragments) == 0 {
		err := cdperr.New(cdperr.KindProtocolError, "continuation frame received with no fragment sequence open")
		go c.closeWith(err)
		return err
	}

	c.fragTotal += int64(len(frame.Payload))
	if c.fragTotal > c.cfg.MaxMessageSize {
		err := cdperr.New(cdperr.KindMessageTooBig, "reassembled message exceeds max size")
		go c.closeWith(err)
		return err
	}
	c.fragments = append(c.fragments, frame.Payload)

	if frame.Fin {
		message := joinFragments(c.fragments)
		c.fragments = nil
		c.fragTotal = 0

		c.mu.Lock()
		handler := c.onMessage
		c.mu.Unlock()
		if handler != nil {
			handler(message, c.fragmentedOpcode == protocol.OpcodeText)
		}
	}
	return nil
}

// handleControl processes a control frame, returning false if the channel
// should stop reading (a close frame was received).
func (c *Channel) handleControl(frame *protocol.Frame) bool {
	switch frame.Opcode {
	case protocol.OpcodeClose:
		go c.closeWith(cdperr.New(cdperr.KindConnection, "remote closed connection"))
		return false
	case protocol.OpcodePing:
		_ = c.sendFrame(protocol.OpcodePong, frame.Payload)
	case protocol.OpcodePong:
		// accepted and ignored: the channel keeps no liveness clock, and
		// heartbeatLoop pings on a fixed ticker regardless of inbound traffic
	}
	return true
}

func (c *Channel) heartbeatLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = c.Ping()
		}
	}
}

func joinFragments(fragments [][]byte) []byte {
	if len(fragments) == 1 {
		return fragments[0]
	}
	var n int
	for _, f := range fragments {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range fragments {
		out = append(out, f...)
	}
	return out
}

// deadlineReader adapts a *transport.Stream into an io.Reader that applies
// a fixed per-call read timeout, surfacing a KindTimeout error on expiry so
// Poll can report an idle read without blocking forever on a quiet
// connection.
type deadlineReader struct {
	stream  *transport.Stream
	timeout time.Duration
}

func (d deadlineReader) Read(p []byte) (int, error) {
	n, err := d.stream.RecvInto(p, d.timeout)
	if err != nil {
		return n, err
	}
	return n, nil
}
