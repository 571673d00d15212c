package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RTCSession/logger"
	"RTCSession/module/chat/model"
	"RTCSession/tools/errs"
	"RTCSession/tools/safe"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ===== state machine =====

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateReconnectWait
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateReconnectWait:
		return "RECONNECT_WAIT"
	case StateTornDown:
		return "TORN_DOWN"
	default:
		return "UNKNOWN"
	}
}

// Transport is the minimal surface of a push connection. *websocket.Conn
// satisfies it; tests substitute an in-memory pair.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Dialer func(ctx context.Context, url string) (Transport, error)

// IdentitySource is the pre-connect identity check. The transport is
// never dialed for an unauthenticated viewer.
type IdentitySource interface {
	CurrentUser(ctx context.Context) (*model.Identity, error)
}

// ===== configuration =====

type ManagerConf struct {
	WSURL          string
	ReconnectDelay time.Duration // fixed delay before re-dialing (3s)
	DialTimeout    time.Duration
	SendQueueSize  int
	Dial           Dialer      // injectable dialer for tests; nil => gorilla
	OnState        func(State) // optional state observer, called off-lock
}

func (c *ManagerConf) norm() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 64
	}
	if c.Dial == nil {
		c.Dial = defaultDial
	}
}

func defaultDial(ctx context.Context, rawURL string) (Transport, error) {
	d := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
	}
	conn, _, err := d.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ===== data structures =====

// wsSession is one live dial: transport plus its private outbound queue.
// The quit channel is closed exactly once, by whoever observes the session
// as current while detaching it.
type wsSession struct {
	ID        string
	Transport Transport
	Send      chan []byte
	quit      chan struct{}
}

// ConnManager owns the push transport lifecycle for one (server, channel)
// pair. At most one transport is open at any time; switching channels is
// Close followed by a fresh manager. An unexpected drop schedules exactly
// one reconnect after ReconnectDelay, forever, until Close.
type ConnManager struct {
	mu       sync.Mutex
	conf     ManagerConf
	identity IdentitySource

	state       State
	tearingDown bool
	cur         *wsSession
	reconnect   *time.Timer

	serverID  int64
	channelID int64
	viewer    *model.Identity

	recv     chan Incoming
	done     chan struct{}
	doneOnce sync.Once
}

func NewConnManager(conf ManagerConf, identity IdentitySource) *ConnManager {
	conf.norm()
	return &ConnManager{
		conf:     conf,
		identity: identity,
		state:    StateIdle,
		recv:     make(chan Incoming, 256),
		done:     make(chan struct{}),
	}
}

// Recv delivers decoded incoming units in transport order. The channel is
// never closed; consumers select against Done.
func (m *ConnManager) Recv() <-chan Incoming { return m.recv }

// Done is closed on teardown.
func (m *ConnManager) Done() <-chan struct{} { return m.done }

func (m *ConnManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ConnManager) Connected() bool { return m.State() == StateOpen }

// Viewer returns the identity captured by the last successful pre-connect
// check, nil before the first one.
func (m *ConnManager) Viewer() *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewer
}

// ===== open / dial =====

// Open performs the identity check and dials the push endpoint for the
// given pair. An identity failure aborts without entering CONNECTING and
// without scheduling a retry; a dial failure behaves like a drop and
// schedules the reconnect cycle.
func (m *ConnManager) Open(ctx context.Context, serverID, channelID int64) error {
	m.mu.Lock()
	if m.tearingDown {
		m.mu.Unlock()
		return errs.ErrTransport.WithDetail("manager is torn down")
	}
	m.serverID, m.channelID = serverID, channelID
	m.mu.Unlock()
	return m.dial(ctx)
}

func (m *ConnManager) dial(ctx context.Context) error {
	viewer, err := m.identity.CurrentUser(ctx)
	if err != nil {
		m.setState(StateClosed)
		return err
	}

	m.mu.Lock()
	if m.tearingDown {
		m.mu.Unlock()
		return errs.ErrTransport.WithDetail("manager is torn down")
	}
	m.viewer = viewer
	m.state = StateConnecting
	wsURL := fmt.Sprintf("%s?server_id=%d&channel_id=%d", m.conf.WSURL, m.serverID, m.channelID)
	m.mu.Unlock()
	m.emit(StateConnecting)

	dctx, cancel := context.WithTimeout(ctx, m.conf.DialTimeout)
	defer cancel()
	t, err := m.conf.Dial(dctx, wsURL)
	if err != nil {
		m.mu.Lock()
		retry := !m.tearingDown
		if retry {
			m.state = StateClosed
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
		if retry {
			m.emit(StateReconnectWait)
		}
		return errs.ErrTransport.WrapMsg(err.Error(), "url", wsURL)
	}

	m.mu.Lock()
	if m.tearingDown {
		// The flag is checked before completing into OPEN: a dial that
		// lands after Close must not leak a live transport.
		m.mu.Unlock()
		_ = t.Close()
		return errs.ErrTransport.WithDetail("torn down during connect")
	}
	if m.cur != nil {
		close(m.cur.quit)
		_ = m.cur.Transport.Close()
	}
	s := &wsSession{
		ID:        uuid.NewString(),
		Transport: t,
		Send:      make(chan []byte, m.conf.SendQueueSize),
		quit:      make(chan struct{}),
	}
	m.cur = s
	m.state = StateOpen
	m.mu.Unlock()
	m.emit(StateOpen)

	logger.Infof("[ConnManager] open conn=%s server=%d channel=%d", s.ID, m.serverID, m.channelID)
	safe.Go("chat.readPump", func() { m.readPump(s) })
	safe.Go("chat.writePump", func() { m.writePump(s) })
	return nil
}

// ===== pumps =====

func (m *ConnManager) readPump(s *wsSession) {
	for {
		_, data, err := s.Transport.ReadMessage()
		if err != nil {
			m.handleDrop(s, err)
			return
		}
		inc := ParseIncoming(data)

		m.mu.Lock()
		current := m.cur == s && !m.tearingDown
		m.mu.Unlock()
		if !current {
			return
		}
		select {
		case m.recv <- inc:
		case <-m.done:
			return
		}
	}
}

func (m *ConnManager) writePump(s *wsSession) {
	for {
		select {
		case data := <-s.Send:
			if err := s.Transport.WriteMessage(websocket.TextMessage, data); err != nil {
				m.handleDrop(s, err)
				return
			}
		case <-s.quit:
			return
		}
	}
}

// handleDrop detaches a dropped session and arms the reconnect timer.
// No-op unless the session is still current, so a drop racing Close or a
// replacement dial cannot double-fire.
func (m *ConnManager) handleDrop(s *wsSession, cause error) {
	m.mu.Lock()
	if m.tearingDown || m.cur != s {
		m.mu.Unlock()
		return
	}
	close(s.quit)
	_ = s.Transport.Close()
	m.cur = nil
	m.state = StateClosed
	m.scheduleReconnectLocked()
	m.mu.Unlock()

	logger.Warnf("[ConnManager] conn=%s dropped: %v, reconnect in %s", s.ID, cause, m.conf.ReconnectDelay)
	m.emit(StateReconnectWait)
}

func (m *ConnManager) scheduleReconnectLocked() {
	m.state = StateReconnectWait
	if m.reconnect != nil {
		m.reconnect.Stop()
	}
	m.reconnect = time.AfterFunc(m.conf.ReconnectDelay, m.redial)
}

func (m *ConnManager) redial() {
	m.mu.Lock()
	if m.tearingDown {
		m.mu.Unlock()
		return
	}
	m.reconnect = nil
	m.mu.Unlock()

	if err := m.dial(context.Background()); err != nil {
		logger.Warnf("[ConnManager] reconnect failed: %v", err)
	}
}

// ===== send =====

// Send queues one outbound payload. Sending on a non-open transport is a
// contract violation: logged, dropped, never retried.
func (m *ConnManager) Send(data []byte) error {
	m.mu.Lock()
	if m.state != StateOpen || m.cur == nil {
		st := m.state
		m.mu.Unlock()
		logger.Warnf("[ConnManager] drop outbound payload, state=%s", st)
		return errs.ErrNotConnected
	}
	s := m.cur
	m.mu.Unlock()

	select {
	case s.Send <- data:
		return nil
	case <-s.quit:
		return errs.ErrNotConnected
	default:
		logger.Warnf("[ConnManager] drop outbound payload, queue full conn=%s", s.ID)
		return errs.ErrNotConnected.WithDetail("send queue full")
	}
}

// SendText sends the literal chat message body.
func (m *ConnManager) SendText(text string) error {
	return m.Send([]byte(text))
}

// ===== teardown =====

// BeginTeardown marks the manager as tearing down and cancels any pending
// reconnect. The flag is raised before anything else so in-flight dials
// and callbacks become no-ops; see Close for the transport itself.
func (m *ConnManager) BeginTeardown() {
	m.mu.Lock()
	m.tearingDown = true
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.mu.Unlock()
}

// Close tears the manager down: flag first, reconnect timer second, live
// transport last. Idempotent; the manager is unusable afterwards.
func (m *ConnManager) Close() {
	m.BeginTeardown()

	m.mu.Lock()
	if m.cur != nil {
		close(m.cur.quit)
		_ = m.cur.Transport.Close()
		m.cur = nil
	}
	m.state = StateTornDown
	m.mu.Unlock()

	m.doneOnce.Do(func() { close(m.done) })
	m.emit(StateTornDown)
}

func (m *ConnManager) setState(st State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	m.emit(st)
}

func (m *ConnManager) emit(st State) {
	if m.conf.OnState != nil {
		m.conf.OnState(st)
	}
}
