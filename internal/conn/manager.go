// Package conn owns the logical socket connection to the simulation
// broadcaster: dialing, the read loop, reconnection with a fixed delay, and
// the bounded message histories. All connection state lives in a single run
// loop fed by an event channel, so the reconnect logic is testable without a
// network and no callback can mutate state concurrently.
package conn

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fieldscope/internal/obs"
	"fieldscope/internal/store"
	"fieldscope/pkg/field"
)

// State is the connection lifecycle phase.
type State string

const (
	// StateDisconnected means no connection exists; a reconnect may be pending.
	StateDisconnected State = "disconnected"
	// StateConnecting means a dial is in flight.
	StateConnecting State = "connecting"
	// StateConnected means frames are being read.
	StateConnected State = "connected"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultHistoryLimit   = 50
	DefaultSummaryLimit   = 200
)

// ErrClosed is returned by operations on a torn-down manager.
var ErrClosed = errors.New("connection manager closed")

// ErrNotConnected is returned by SendPing when no connection is live.
var ErrNotConnected = errors.New("not connected")

// Conn is the minimal transport surface the manager needs. The production
// implementation wraps a websocket; tests substitute fakes.
type Conn interface {
	// ReadMessage blocks for the next text frame.
	ReadMessage() ([]byte, error)
	// WriteMessage sends one text frame.
	WriteMessage(data []byte) error
	// Close terminates the connection, unblocking ReadMessage.
	Close() error
}

// Dialer opens a connection to an endpoint.
type Dialer interface {
	Dial(endpoint string) (Conn, error)
}

// Config parameterizes a Manager.
type Config struct {
	// Endpoint is the socket address, e.g. ws://host:port/ws.
	Endpoint string
	// ReconnectDelay is the fixed wait before a reconnect attempt.
	ReconnectDelay time.Duration
	// HistoryLimit bounds both message histories.
	HistoryLimit int
	// SummaryLimit truncates recorded entries to this many bytes.
	SummaryLimit int
	// Dialer defaults to the websocket dialer.
	Dialer Dialer
}

func (c Config) withDefaults() Config {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.SummaryLimit <= 0 {
		c.SummaryLimit = DefaultSummaryLimit
	}
	if c.Dialer == nil {
		c.Dialer = WebsocketDialer{}
	}
	return c
}

// Manager drives one logical connection. At most one live connection exists
// per manager at any instant.
type Manager struct {
	cfg     Config
	store   *store.Store
	log     obs.Logger
	metrics *obs.Metrics

	events    chan event
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	state     State
	summaries []string
	plain     []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger routes connection diagnostics to log.
func WithLogger(log obs.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMetrics records frame and reconnect counters on metrics.
func WithMetrics(metrics *obs.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// event is an input to the run loop. Events carry the connection generation
// that produced them; stale generations are discarded, which is what makes a
// late callback from a replaced socket harmless.
type event interface{}

type evDialed struct {
	gen  uint64
	conn Conn
	err  error
}

type evFrame struct {
	gen  uint64
	data []byte
}

type evClosed struct {
	gen uint64
	err error
}

type evRetry struct{ gen uint64 }

type evReconnect struct{}

type evPing struct{ reply chan error }

// New constructs a manager and immediately begins connecting to the
// configured endpoint.
func New(cfg Config, st *store.Store, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg.withDefaults(),
		store:    st,
		log:      obs.NopLogger(),
		events:   make(chan event, 16),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run()
	return m
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// History returns the most recent decoded-update summaries, oldest first.
func (m *Manager) History() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.summaries...)
}

// PlainMessages returns the most recent unstructured frames, oldest first.
func (m *Manager) PlainMessages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.plain...)
}

// Reconnect forcibly closes any current connection and dials again. It is a
// no-op on a closed manager.
func (m *Manager) Reconnect() {
	m.send(evReconnect{})
}

// SendPing writes a best-effort ping frame on the live connection. There is
// no response contract.
func (m *Manager) SendPing() error {
	reply := make(chan error, 1)
	if !m.send(evPing{reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-m.done:
		return ErrClosed
	}
}

// Close tears the manager down: the pending reconnect timer is cancelled and
// the socket closed before Close returns, so no late event can mutate state
// afterwards.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	<-m.loopDone
	return nil
}

// send delivers an event to the run loop unless the manager is closed.
func (m *Manager) send(ev event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) run() {
	var (
		cur   Conn
		gen   uint64
		timer *time.Timer
	)

	connect := func() {
		if cur != nil {
			// Already connected: connecting again is a no-op.
			return
		}
		m.setState(StateConnecting)
		gen++
		g := gen
		go func() {
			c, err := m.cfg.Dialer.Dial(m.cfg.Endpoint)
			if !m.send(evDialed{gen: g, conn: c, err: err}) && c != nil {
				_ = c.Close()
			}
		}()
	}

	scheduleRetry := func() {
		if timer != nil {
			timer.Stop()
		}
		if m.metrics != nil {
			m.metrics.Reconnects.Inc()
		}
		g := gen
		timer = time.AfterFunc(m.cfg.ReconnectDelay, func() {
			m.send(evRetry{gen: g})
		})
	}

	connect()

	for {
		select {
		case <-m.done:
			if timer != nil {
				timer.Stop()
			}
			if cur != nil {
				_ = cur.Close()
			}
			m.setState(StateDisconnected)
			close(m.loopDone)
			return

		case ev := <-m.events:
			switch e := ev.(type) {
			case evDialed:
				if e.gen != gen {
					if e.conn != nil {
						_ = e.conn.Close()
					}
					continue
				}
				if e.err != nil {
					m.log.Warn("dial failed", "endpoint", m.cfg.Endpoint, "error", e.err)
					m.setState(StateDisconnected)
					scheduleRetry()
					continue
				}
				cur = e.conn
				if timer != nil {
					timer.Stop()
					timer = nil
				}
				m.setState(StateConnected)
				m.log.Info("connected", "endpoint", m.cfg.Endpoint)
				go m.readLoop(e.gen, cur)

			case evFrame:
				if e.gen != gen || cur == nil {
					continue
				}
				m.handleFrame(e.data)

			case evClosed:
				if e.gen != gen {
					continue
				}
				cur = nil
				m.setState(StateDisconnected)
				m.log.Warn("connection lost", "error", e.err)
				scheduleRetry()

			case evRetry:
				if e.gen != gen || cur != nil {
					continue
				}
				connect()

			case evReconnect:
				if cur != nil {
					_ = cur.Close()
					cur = nil
					gen++
				}
				if timer != nil {
					timer.Stop()
					timer = nil
				}
				connect()

			case evPing:
				if cur == nil {
					e.reply <- ErrNotConnected
					continue
				}
				e.reply <- cur.WriteMessage([]byte(`{"type":"ping"}`))
			}
		}
	}
}

// readLoop pumps frames from one connection into the run loop. It exits on
// the first read error, which includes the run loop closing the socket.
func (m *Manager) readLoop(gen uint64, c Conn) {
	for {
		data, err := c.ReadMessage()
		if err != nil {
			m.send(evClosed{gen: gen, err: err})
			return
		}
		if !m.send(evFrame{gen: gen, data: data}) {
			return
		}
	}
}

// handleFrame decodes one frame. Structured updates are applied to the store
// and summarized; anything else lands in the plain-message history. Neither
// path can fail the read loop.
func (m *Manager) handleFrame(data []byte) {
	u, err := field.DecodeFrame(data)
	if err != nil {
		m.log.Debug("unstructured frame", "error", err)
		if m.metrics != nil {
			m.metrics.Frames.WithLabelValues(obs.FramePlain).Inc()
		}
		m.recordPlain(string(data))
		return
	}
	if m.metrics != nil {
		m.metrics.Frames.WithLabelValues(obs.FrameDecoded).Inc()
	}
	m.store.Apply(u)
	m.recordSummary(summarize(u))
}

func summarize(u field.Update) string {
	op := "replace"
	if _, ok := u.(field.AppendUpdate); ok {
		op = "append"
	}
	return fmt.Sprintf("%s %s @%g", op, u.FieldName(), u.At())
}

func (m *Manager) recordSummary(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = appendBounded(m.summaries, truncate(s, m.cfg.SummaryLimit), m.cfg.HistoryLimit)
}

func (m *Manager) recordPlain(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plain = appendBounded(m.plain, truncate(s, m.cfg.SummaryLimit), m.cfg.HistoryLimit)
}

func appendBounded(entries []string, entry string, limit int) []string {
	entries = append(entries, entry)
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	if m.metrics != nil {
		if s == StateConnected {
			m.metrics.Connected.Set(1)
		} else {
			m.metrics.Connected.Set(0)
		}
	}
}
