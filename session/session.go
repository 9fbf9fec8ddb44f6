// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package session implements the CDP multiplexer: one session owns one
// logical connection to a target's message channel, allocates request IDs,
// correlates responses, dispatches events, and reconnects with backoff when
// the channel drops. Grounded on the reference CDPConnection: request
// correlation via pendingCallbacks_, event dispatch via eventHandlers_ /
// anyEventHandler_, and the reconnect state machine via
// ReconnectSettings/attemptReconnect. The reference's separate message and
// heartbeat OS threads collapse here into goroutines: a dedicated reader
// task driving channel.Channel.PollAll with the adaptive idle backoff
// spec.md §5 describes, a dispatch goroutine draining the inbox that
// reader feeds, and the channel's own heartbeat goroutine
// (channel.Config.HeartbeatInterval) standing in for heartbeatThreadFunc.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvidlabs/cdpgo/cdperr"
	"github.com/corvidlabs/cdpgo/channel"
	"github.com/corvidlabs/cdpgo/control"
)

// State mirrors the reference's ConnectionState enum.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ReconnectSettings controls the auto-reconnect state machine, with
// defaults matching the reference ReconnectSettings.
type ReconnectSettings struct {
	AutoReconnect     bool
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	MaxAttempts       int // 0 = unlimited
	BackoffMultiplier float64
}

// DefaultReconnectSettings returns the reference client's defaults: 1s
// initial backoff doubling up to 30s, unlimited attempts.
func DefaultReconnectSettings() ReconnectSettings {
	return ReconnectSettings{
		AutoReconnect:     true,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		MaxAttempts:       0,
		BackoffMultiplier: 2.0,
	}
}

// LifecycleHooks are optional callbacks into session-level connection
// events, corresponding to the reference's onError/onDisconnect/
// onReconnecting/onReconnected/onReconnectFailed.
type LifecycleHooks struct {
	OnError           func(error)
	OnDisconnect      func()
	OnReconnecting    func(attempt int)
	OnReconnected     func()
	OnReconnectFailed func(reason error)
}

// Session is one multiplexed connection to a CDP message channel. All
// exported methods are safe for concurrent use.
type Session struct {
	target string
	chCfg  channel.Config
	reconn ReconnectSettings
	hooks  LifecycleHooks

	metrics     *control.MetricsRegistry
	reloadHooks *control.ReloadHooks
	log         zerolog.Logger

	mu    sync.RWMutex
	ch    *channel.Channel
	state atomic.Int32

	requestID atomic.Int64
	pending   *pendingTable
	events    *eventTable
	box       *inbox

	// Handlers called from the dispatch goroutine receive a ctx carrying
	// dispatchMarker, so SendSync can recognize a reentrant call.
	closed atomic.Bool
	wg     sync.WaitGroup

	reconnectAttempts atomic.Int32
}

type dispatchMarkerType struct{}

var dispatchMarker = dispatchMarkerType{}

// Option configures a Session at construction time.
type Option func(*Session)

// WithChannelConfig overrides the default channel.Config used to dial.
func WithChannelConfig(cfg channel.Config) Option {
	return func(s *Session) { s.chCfg = cfg }
}

// WithReconnectSettings overrides the default reconnect policy.
func WithReconnectSettings(r ReconnectSettings) Option {
	return func(s *Session) { s.reconn = r }
}

// WithLifecycleHooks installs connection lifecycle callbacks.
func WithLifecycleHooks(h LifecycleHooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithMetrics reports session-level counters (connection state, pending
// call depth, reconnect attempts) into an existing registry under the fixed
// keys "session.state", "session.pending_count", and
// "session.reconnect_attempts". The keys do not include the target, so
// sessions sharing one registry overwrite each other's values.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(s *Session) { s.metrics = m }
}

// WithReloadHooks wires an existing reload-hook registry to fire whenever
// this session completes a reconnect, letting external code (a CLI, a
// supervisor) resubscribe to events that only exist for the lifetime of a
// single underlying connection.
func WithReloadHooks(r *control.ReloadHooks) Option {
	return func(s *Session) { s.reloadHooks = r }
}

// WithLogger installs a logger used for connection lifecycle and dispatch
// diagnostics. The zero value (an unconfigured Session) logs nothing: the
// default logger is zerolog's no-op implementation, never a process-wide
// singleton.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New dials target (a webSocketDebuggerUrl) and starts the dispatch
// goroutine. The session begins reconnecting automatically if the initial
// dial succeeds and a later connection drop occurs; a failed initial dial
// is returned to the caller directly.
func New(target string, opts ...Option) (*Session, error) {
	s := &Session{
		target:  target,
		chCfg:   channel.DefaultConfig(),
		reconn:  DefaultReconnectSettings(),
		pending: newPendingTable(),
		events:  newEventTable(),
		box:     newInbox(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state.Store(int32(StateConnecting))
	if err := s.dial(); err != nil {
		s.state.Store(int32(StateDisconnected))
		s.reportMetrics()
		s.log.Error().Err(err).Str("target", s.target).Msg("initial dial failed")
		return nil, err
	}
	s.state.Store(int32(StateConnected))
	s.reportMetrics()
	s.log.Info().Str("target", s.target).Msg("session connected")

	s.wg.Add(1)
	go s.dispatchLoop()
	return s, nil
}

// reportMetrics mirrors the session's current state, pending-call depth,
// and reconnect-attempt count into the registry passed to WithMetrics, if
// any. It is a no-op when no registry was configured.
func (s *Session) reportMetrics() {
	if s.metrics == nil {
		return
	}
	s.metrics.Set("session.state", s.State().String())
	s.metrics.Set("session.pending_count", s.pending.pendingCount())
	s.metrics.Set("session.reconnect_attempts", int(s.reconnectAttempts.Load()))
}

func (s *Session) dial() error {
	ch, err := channel.Dial(s.target, s.chCfg)
	if err != nil {
		return err
	}
	ch.SetHandlers(s.onChannelMessage, s.onChannelClosed)
	ch.Start() // heartbeat only; this session is the dedicated reader task

	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = ch.PollAll(s.chCfg.ReadIdleTimeout)
	}()
	return nil
}

func (s *Session) onChannelMessage(payload []byte, isText bool) {
	s.box.push(inboundMessage{payload: payload, isText: isText})
}

func (s *Session) onChannelClosed(err error) {
	if s.closed.Load() {
		return
	}
	s.log.Warn().Err(err).Str("target", s.target).Msg("channel closed")
	if s.hooks.OnDisconnect != nil {
		s.hooks.OnDisconnect()
	}
	ctx := context.WithValue(context.Background(), dispatchMarker, true)
	s.pending.failAll(ctx, cdperr.Wrap(cdperr.KindConnection, "channel closed", err))

	if s.reconn.AutoReconnect {
		s.state.Store(int32(StateReconnecting))
		go s.reconnectLoop()
	} else {
		s.state.Store(int32(StateDisconnected))
	}
	s.reportMetrics()
}

func (s *Session) reconnectLoop() {
	delay := s.reconn.InitialDelay
	attempt := 0
	for {
		attempt++
		s.reconnectAttempts.Store(int32(attempt))
		s.reportMetrics()
		if s.reconn.MaxAttempts > 0 && attempt > s.reconn.MaxAttempts {
			if s.hooks.OnReconnectFailed != nil {
				s.hooks.OnReconnectFailed(fmt.Errorf("session: exceeded %d reconnect attempts", s.reconn.MaxAttempts))
			}
			s.state.Store(int32(StateDisconnected))
			s.reportMetrics()
			return
		}
		if s.closed.Load() {
			return
		}
		if s.hooks.OnReconnecting != nil {
			s.hooks.OnReconnecting(attempt)
		}

		if err := s.dial(); err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", delay).Msg("reconnect attempt failed")
			if s.hooks.OnError != nil {
				s.hooks.OnError(err)
			}
			time.Sleep(delay)
			delay = nextBackoff(delay, s.reconn.BackoffMultiplier, s.reconn.MaxDelay)
			continue
		}

		s.state.Store(int32(StateConnected))
		s.reconnectAttempts.Store(0)
		s.reportMetrics()
		s.log.Info().Int("attempt", attempt).Msg("reconnected")
		if s.hooks.OnReconnected != nil {
			s.hooks.OnReconnected()
		}
		if s.reloadHooks != nil {
			s.reloadHooks.Trigger()
		}
		return
	}
}

func nextBackoff(current time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(math.Round(float64(current) * multiplier))
	if next > max {
		return max
	}
	if next <= 0 {
		return max
	}
	return next
}

// State reports the session's current connection state.
func (s *Session) State() State { return State(s.state.Load()) }

// PendingCount reports the number of calls awaiting a response, useful for
// diagnostics and metrics.
func (s *Session) PendingCount() int { return s.pending.pendingCount() }

// On subscribes to events whose method matches exactly.
func (s *Session) On(method string, handler EventHandler) Unsubscribe {
	return s.events.on(method, handler)
}

// OnAny subscribes to every event, regardless of method.
func (s *Session) OnAny(handler EventHandler) Unsubscribe {
	return s.events.on("", handler)
}

// Remove unregisters the handler registered for the exact method string
// (including "" for the catch-all handler installed via OnAny), if any. It
// is an alternative to calling the Unsubscribe token returned by On/OnAny,
// for callers that address subscriptions by method name instead.
func (s *Session) Remove(method string) {
	s.events.removeByMethod(method)
}

// RemoveByPrefix unregisters every handler whose method starts with prefix,
// e.g. RemoveByPrefix("Network.") to drop every network-domain subscriber
// at once.
func (s *Session) RemoveByPrefix(prefix string) {
	s.events.removeByPrefix(prefix)
}

// Send issues an asynchronous call and returns its request ID immediately;
// handler is invoked once the response arrives, or once with a
// KindConnection error if the channel drops first. A nil handler means the
// caller does not care about the response (CDP tolerates this for
// notification-style commands).
func (s *Session) Send(method string, params any, handler ResponseHandler) (int64, error) {
	id := s.requestID.Add(1)
	raw, err := encodeRequest(id, method, params)
	if err != nil {
		return 0, cdperr.Wrap(cdperr.KindProtocolError, "encode request", err)
	}

	if handler != nil {
		s.pending.register(id, handler)
	}

	s.mu.RLock()
	ch := s.ch
	s.mu.RUnlock()
	if ch == nil {
		if handler != nil {
			s.pending.resolve(id)
		}
		return 0, cdperr.New(cdperr.KindConnection, "not connected")
	}
	if err := ch.SendText(raw); err != nil {
		if handler != nil {
			s.pending.resolve(id)
		}
		return 0, err
	}
	return id, nil
}

// SendSync issues a call and blocks for its response. ctx should be the
// context passed into the caller's own ResponseHandler/EventHandler when
// the call originates from inside one — doing so lets SendSync detect that
// it is being invoked from the dispatch goroutine itself, which would
// deadlock waiting for a response that goroutine must itself deliver, and
// return a KindWouldDeadlock error instead of hanging. A context.Background()
// passed from outside any handler behaves like a normal blocking call.
func (s *Session) SendSync(ctx context.Context, method string, params any) (Response, error) {
	if ctx.Value(dispatchMarker) != nil {
		return Response{}, cdperr.New(cdperr.KindWouldDeadlock, "SendSync called from the dispatch goroutine")
	}

	result := make(chan Response, 1)
	_, err := s.Send(method, params, func(_ context.Context, resp Response) {
		result <- resp
	})
	if err != nil {
		return Response{}, err
	}

	select {
	case resp := <-result:
		return resp, nil
	case <-ctx.Done():
		return Response{}, cdperr.Wrap(cdperr.KindTimeout, "SendSync canceled", ctx.Err())
	}
}

// Close idempotently tears down the session: stops auto-reconnect, closes
// the current channel, and fails any pending calls.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.state.Store(int32(StateDisconnected))

	s.mu.RLock()
	ch := s.ch
	s.mu.RUnlock()

	var err error
	if ch != nil {
		err = ch.Close()
	}
	s.box.close()
	s.wg.Wait()

	ctx := context.WithValue(context.Background(), dispatchMarker, true)
	s.pending.failAll(ctx, cdperr.New(cdperr.KindConnection, "session closed"))
	s.reportMetrics()
	return err
}

func (s *Session) dispatchLoop() {
	defer s.wg.Done()
	for {
		msg, ok := s.box.pop()
		if !ok {
			return
		}
		if !msg.isText {
			continue // binary frames carry no CDP semantics
		}
		s.dispatchMessage(msg.payload)
	}
}

type wireEnvelope struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *wireError      `json:"error"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Session) dispatchMessage(payload []byte) {
	var env wireEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.Error().Err(err).Msg("malformed message")
		if s.hooks.OnError != nil {
			s.hooks.OnError(cdperr.Wrap(cdperr.KindProtocolError, "malformed message", err))
		}
		return
	}

	ctx := context.WithValue(context.Background(), dispatchMarker, true)

	if env.Method != "" {
		s.events.dispatch(ctx, Event{Method: env.Method, Params: env.Params})
		return
	}

	handler, ok := s.pending.resolve(env.ID)
	if !ok {
		return
	}
	resp := Response{ID: env.ID, Result: env.Result}
	if env.Error != nil {
		resp.Err = &cdperr.Error{
			Kind:    cdperr.KindRemoteError,
			Message: fmt.Sprintf("[%d] %s", env.Error.Code, env.Error.Message),
		}
	}
	handler(ctx, resp)
}

func encodeRequest(id int64, method string, params any) ([]byte, error) {
	req := struct {
		ID     int64  `json:"id"`
		Method string `json:"method"`
		Params any    `json:"params,omitempty"`
	}{ID: id, Method: method, Params: params}
	return json.Marshal(req)
}
