// Package connection owns the single channel to the remote host: connect,
// disconnect, automatic reconnect and command transmission.
//
// All state lives on one loop goroutine started by Run. Public methods only
// enqueue requests, so they never block on the loop. Dialing and reading run
// on helper goroutines that post generation-tagged results back into the
// queue; results carrying a superseded generation are discarded, so a
// replaced channel can never touch its successor's state or timer.
package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/studiowebux/clicker/internal/config"
	"github.com/studiowebux/clicker/internal/endpoint"
	"github.com/studiowebux/clicker/internal/protocol"
)

// ErrChannelConstruction reports an address that cannot be turned into a
// WebSocket request. No reconnect follows it.
var ErrChannelConstruction = errors.New("channel construction failed")

const (
	writeTimeout = 5 * time.Second
	closeTimeout = time.Second
)

// SessionStore persists the session address
type SessionStore interface {
	ServerURL() string
	SetServerURL(address string) error
	ClearServerURL() error
}

// HistoryRecorder remembers successfully opened addresses
type HistoryRecorder interface {
	Record(address, label string) error
}

// Resetter silently forces the toggle state back to Off
type Resetter interface {
	Reset()
}

// Options configures a Manager. Every collaborator is optional.
type Options struct {
	Dialer         Dialer
	Session        SessionStore
	History        HistoryRecorder
	Toggle         Resetter
	Normalizer     endpoint.Normalizer
	Logger         zerolog.Logger
	ReconnectDelay time.Duration
	Observers      []Observer
}

type timer interface {
	Stop() bool
}

// channel is one connection attempt and, once open, its socket
type channel struct {
	gen       uint64
	endpoint  endpoint.Endpoint
	address   string
	attemptID string
	conn      Conn
	cancel    context.CancelFunc
	openedAt  time.Time
}

// requests posted into the loop
type (
	connectReq    struct{ endpoint endpoint.Endpoint }
	disconnectReq struct{}
	sendReq       struct{ action protocol.Action }
	dialResult    struct {
		gen  uint64
		conn Conn
		err  error
	}
	inbound struct {
		gen  uint64
		data []byte
	}
	closedResult struct {
		gen uint64
		err error
	}
	timerFired struct{ gen uint64 }
)

// Manager owns the channel lifecycle
type Manager struct {
	dialer  Dialer
	session SessionStore
	history HistoryRecorder
	toggle  Resetter
	logger  zerolog.Logger
	delay   time.Duration

	afterFunc func(time.Duration, func()) timer
	now       func() time.Time

	obsMu     sync.RWMutex
	observers []Observer

	queueMu sync.Mutex
	queue   []any
	wake    chan struct{}

	// snapshots readable from any goroutine
	state       atomic.Int32
	sessionAddr atomic.Value // string
	pending     atomic.Bool

	// loop-owned
	ctx      context.Context
	gen      uint64
	current  *channel
	timer    timer
	timerGen uint64
	target   endpoint.Endpoint
}

// NewManager creates a manager in the Idle state. A session address already
// saved in opts.Session becomes the reconnect target.
func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = WebSocketDialer{}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = config.DefaultReconnectDelay
	}

	m := &Manager{
		dialer:    opts.Dialer,
		session:   opts.Session,
		history:   opts.History,
		toggle:    opts.Toggle,
		logger:    opts.Logger.With().Str("component", "connection").Logger(),
		delay:     opts.ReconnectDelay,
		observers: append([]Observer(nil), opts.Observers...),
		wake:      make(chan struct{}, 1),
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) timer { return time.AfterFunc(d, f) },
	}
	m.state.Store(int32(Idle))

	addr := ""
	if opts.Session != nil {
		addr = opts.Session.ServerURL()
	}
	if addr != "" {
		m.target = opts.Normalizer.Normalize(addr)
		addr = m.target.String()
	}
	m.sessionAddr.Store(addr)

	return m
}

// AddObserver registers an observer
func (m *Manager) AddObserver(o Observer) {
	m.obsMu.Lock()
	m.observers = append(m.observers, o)
	m.obsMu.Unlock()
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	return State(m.state.Load())
}

// SessionAddress returns the reconnect target, "" when none
func (m *Manager) SessionAddress() string {
	return m.sessionAddr.Load().(string)
}

// ReconnectPending reports whether a reconnect timer is armed
func (m *Manager) ReconnectPending() bool {
	return m.pending.Load()
}

// Connect replaces any existing channel with a new one to ep
func (m *Manager) Connect(ep endpoint.Endpoint) {
	m.post(connectReq{endpoint: ep})
}

// Disconnect closes the channel and stops reconnecting
func (m *Manager) Disconnect() {
	m.post(disconnectReq{})
}

// Send transmits action if the channel is open; otherwise it is dropped.
// The result reports whether the channel was open when called.
func (m *Manager) Send(action protocol.Action) bool {
	m.post(sendReq{action: action})
	return m.State() == Open
}

// Run processes requests until ctx is done, then tears the channel down.
// A Disconnect posted before ctx was cancelled is still honored.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.wake:
		}

		for _, req := range m.drain() {
			m.handle(req)
		}
	}
}

func (m *Manager) post(req any) {
	m.queueMu.Lock()
	m.queue = append(m.queue, req)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) drain() []any {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	reqs := m.queue
	m.queue = nil
	return reqs
}

func (m *Manager) handle(req any) {
	switch r := req.(type) {
	case connectReq:
		m.handleConnect(r.endpoint)
	case disconnectReq:
		m.handleDisconnect()
	case sendReq:
		m.handleSend(r.action)
	case dialResult:
		m.handleDialResult(r)
	case inbound:
		m.handleInbound(r)
	case closedResult:
		m.handleClosedResult(r)
	case timerFired:
		m.handleTimerFired(r)
	case func():
		r()
	}
}

func (m *Manager) handleConnect(ep endpoint.Endpoint) {
	m.supersede()
	m.cancelReconnect()

	address := ep.String()
	attemptID := uuid.NewString()

	if err := validateAddress(address); err != nil {
		err = fmt.Errorf("%w: %v", ErrChannelConstruction, err)
		m.logger.Error().Err(err).Str("address", address).Msg("cannot open channel")
		m.setState(Idle, address, attemptID)
		m.emit(Event{Kind: EventError, Address: address, AttemptID: attemptID, Err: err})
		return
	}

	m.gen++
	dialCtx, cancel := context.WithCancel(m.ctx)
	ch := &channel{
		gen:       m.gen,
		endpoint:  ep,
		address:   address,
		attemptID: attemptID,
		cancel:    cancel,
	}
	m.current = ch

	m.logger.Info().Str("address", address).Str("attempt", attemptID).Msg("connecting")
	m.setState(Connecting, address, attemptID)

	go func(gen uint64) {
		conn, err := m.dialer.Dial(dialCtx, address)
		m.post(dialResult{gen: gen, conn: conn, err: err})
	}(ch.gen)
}

func (m *Manager) handleDialResult(r dialResult) {
	ch := m.current
	if ch == nil || ch.gen != r.gen {
		if r.conn != nil {
			r.conn.Close()
		}
		return
	}

	if r.err != nil {
		m.logger.Warn().Err(r.err).Str("address", ch.address).Msg("connection failed")
		m.emit(Event{Kind: EventError, Address: ch.address, AttemptID: ch.attemptID, Err: r.err})
		m.closeChannel(ch, r.err)
		return
	}

	ch.conn = r.conn
	ch.openedAt = m.now()
	m.setState(Open, ch.address, ch.attemptID)

	m.target = ch.endpoint
	m.sessionAddr.Store(ch.address)
	if m.session != nil {
		if err := m.session.SetServerURL(ch.address); err != nil {
			m.logger.Warn().Err(err).Msg("failed to persist session address")
		}
	}
	if m.history != nil {
		if err := m.history.Record(ch.address, ch.endpoint.Label()); err != nil {
			m.logger.Warn().Err(err).Msg("failed to record history")
		}
	}
	if m.toggle != nil {
		m.toggle.Reset()
	}

	m.logger.Info().Str("address", ch.address).Str("attempt", ch.attemptID).Msg("connected")
	m.emit(Event{Kind: EventOpen, State: Open, Address: ch.address, AttemptID: ch.attemptID})

	go m.readLoop(ch.gen, ch.conn)
}

func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.post(closedResult{gen: gen, err: err})
			return
		}
		m.post(inbound{gen: gen, data: data})
	}
}

func (m *Manager) handleInbound(r inbound) {
	ch := m.current
	if ch == nil || ch.gen != r.gen {
		return
	}
	m.logger.Debug().Str("address", ch.address).Str("message", protocol.Describe(r.data)).Msg("server message")
	m.emit(Event{Kind: EventMessage, State: Open, Address: ch.address, AttemptID: ch.attemptID, Data: r.data})
}

func (m *Manager) handleClosedResult(r closedResult) {
	ch := m.current
	if ch == nil || ch.gen != r.gen {
		return
	}

	var reason error
	if websocket.IsUnexpectedCloseError(r.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		reason = r.err
		m.emit(Event{Kind: EventError, Address: ch.address, AttemptID: ch.attemptID, Err: r.err})
	}
	m.logger.Info().Err(r.err).Str("address", ch.address).Msg("disconnected")
	m.closeChannel(ch, reason)
}

// closeChannel moves the current channel to Closed and arms the reconnect
func (m *Manager) closeChannel(ch *channel, reason error) {
	if ch.conn != nil {
		ch.conn.Close()
	}
	ch.cancel()
	m.current = nil

	var uptime time.Duration
	if !ch.openedAt.IsZero() {
		uptime = m.now().Sub(ch.openedAt)
	}

	m.setState(Closed, ch.address, ch.attemptID)
	if m.toggle != nil {
		m.toggle.Reset()
	}
	m.emit(Event{Kind: EventClose, State: Closed, Address: ch.address, AttemptID: ch.attemptID, Err: reason, Uptime: uptime})

	if m.SessionAddress() != "" {
		m.scheduleReconnect()
	}
}

func (m *Manager) handleDisconnect() {
	address := m.SessionAddress()
	var attemptID string
	var uptime time.Duration
	if ch := m.current; ch != nil {
		address = ch.address
		attemptID = ch.attemptID
		if !ch.openedAt.IsZero() {
			uptime = m.now().Sub(ch.openedAt)
		}
	}

	m.supersede()
	m.cancelReconnect()

	m.target = endpoint.Endpoint{}
	m.sessionAddr.Store("")
	if m.session != nil {
		if err := m.session.ClearServerURL(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to clear session address")
		}
	}

	m.setState(Idle, address, attemptID)
	if m.toggle != nil {
		m.toggle.Reset()
	}
	m.logger.Info().Str("address", address).Msg("disconnected by user")
	m.emit(Event{Kind: EventClose, State: Idle, Address: address, AttemptID: attemptID, Uptime: uptime})
}

func (m *Manager) handleSend(action protocol.Action) {
	ch := m.current
	if m.State() != Open || ch == nil || ch.conn == nil {
		m.logger.Debug().Str("action", string(action)).Msg("dropped command, channel not open")
		return
	}

	data, err := protocol.Encode(action)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to encode command")
		return
	}

	ch.conn.SetWriteDeadline(m.now().Add(writeTimeout))
	if err := ch.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// The read loop reports the close that follows a broken socket
		m.logger.Warn().Err(err).Str("action", string(action)).Msg("failed to send command")
		m.emit(Event{Kind: EventError, Address: ch.address, AttemptID: ch.attemptID, Err: err})
		return
	}
	m.logger.Debug().Str("action", string(action)).Str("address", ch.address).Msg("sent command")
}

func (m *Manager) scheduleReconnect() {
	m.cancelReconnect()

	gen := m.timerGen
	m.timer = m.afterFunc(m.delay, func() {
		m.post(timerFired{gen: gen})
	})
	m.pending.Store(true)

	address := m.SessionAddress()
	m.logger.Info().Str("address", address).Dur("delay", m.delay).Msg("reconnect scheduled")
	m.emit(Event{Kind: EventReconnectScheduled, State: m.State(), Address: address, Delay: m.delay})
}

// cancelReconnect stops the pending timer; a fire already queued is
// invalidated by the generation bump
func (m *Manager) cancelReconnect() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
	m.pending.Store(false)
}

func (m *Manager) handleTimerFired(r timerFired) {
	if m.timer == nil || r.gen != m.timerGen {
		return
	}
	m.timer = nil
	m.pending.Store(false)

	if m.SessionAddress() == "" {
		return
	}
	m.logger.Info().Str("address", m.target.String()).Msg("attempting to reconnect")
	m.handleConnect(m.target)
}

// supersede abandons the current channel without emitting its close
func (m *Manager) supersede() {
	ch := m.current
	if ch == nil {
		return
	}
	m.current = nil
	ch.cancel()
	if ch.conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		ch.conn.WriteControl(websocket.CloseMessage, msg, m.now().Add(closeTimeout))
		ch.conn.Close()
	}
}

func (m *Manager) shutdown() {
	for _, req := range m.drain() {
		if _, ok := req.(disconnectReq); ok {
			m.handleDisconnect()
		}
	}
	m.supersede()
	m.cancelReconnect()
}

func (m *Manager) setState(to State, address, attemptID string) {
	from := m.State()
	if from == to && to != Connecting {
		return
	}
	if !canTransition(from, to) {
		m.logger.Error().Str("from", from.String()).Str("to", to.String()).Msg("illegal state transition")
		return
	}
	m.state.Store(int32(to))
	m.emit(Event{Kind: EventState, State: to, Address: address, AttemptID: attemptID})
}

func (m *Manager) emit(e Event) {
	if e.At.IsZero() {
		e.At = m.now()
	}
	if e.Kind != EventState && e.State == 0 {
		e.State = m.State()
	}

	m.obsMu.RLock()
	observers := m.observers
	m.obsMu.RUnlock()

	for _, o := range observers {
		o.Observe(e)
	}
}

// validateAddress rejects addresses a WebSocket request cannot be built from
func validateAddress(address string) error {
	u, err := url.Parse(address)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
