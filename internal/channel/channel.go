// Package channel maintains the persistent WebSocket connections to the
// game server: at most one live connection per scope key, with automatic
// reconnect and periodic keepalives. Inbound frames are decoded and
// forwarded, in arrival order, on a single events channel.
package channel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eop-online/eop-client/internal/protocol"
)

type Scope string

const (
	// ScopeAnteroom follows membership events before the game starts.
	ScopeAnteroom Scope = "anteroom"
	// ScopeMatch follows gameplay events once the game is running.
	ScopeMatch Scope = "match"
)

// Key identifies one logical connection: a scope for a game id.
type Key struct {
	Scope  Scope
	GameID string
}

// URL resolves the endpoint for this key under base (ws:// or wss://).
func (k Key) URL(base string) string {
	u := base + "/api/v1/ws/games/" + k.GameID
	if k.Scope == ScopeAnteroom {
		u += "/anteroom"
	}
	return u
}

// Inbound is one decoded event tagged with the connection it arrived on.
type Inbound struct {
	Key   Key
	Event protocol.Event
}

const (
	defaultBackoff   = 2 * time.Second
	defaultKeepalive = 15 * time.Second
)

type Option func(*Manager)

// WithBackoff overrides the fixed reconnect delay. Tests run it in
// milliseconds; production keeps the 2 second default.
func WithBackoff(d time.Duration) Option {
	return func(m *Manager) { m.backoff = d }
}

// WithKeepaliveInterval overrides the keepalive period (default 15s).
func WithKeepaliveInterval(d time.Duration) Option {
	return func(m *Manager) { m.keepalive = d }
}

// Manager owns the connections. Open is idempotent per key; Close tears
// the key down and drops any late inbound for it.
type Manager struct {
	base        string
	backoff     time.Duration
	keepalive   time.Duration
	events      chan Inbound
	onConnected func(Key)
	log         *zap.Logger

	mu    sync.Mutex
	conns map[Key]*conn
}

// NewManager builds a manager dialing against base. onConnected fires on
// every successful (re)connect; the server replays nothing across a
// disconnect, so the callback is where consumers schedule a full refetch.
func NewManager(base string, onConnected func(Key), log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		base:        base,
		backoff:     defaultBackoff,
		keepalive:   defaultKeepalive,
		events:      make(chan Inbound, 64),
		onConnected: onConnected,
		log:         log,
		conns:       make(map[Key]*conn),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events is the single ordered stream of decoded inbound events.
func (m *Manager) Events() <-chan Inbound { return m.events }

// Open starts the connection for key. Opening an already-open key is a
// no-op, not an error.
func (m *Manager) Open(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[key]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{key: key, ctx: ctx, cancel: cancel, m: m}
	m.conns[key] = c
	go c.run()
}

// Close stops the connection for key, ending its reconnect loop.
func (m *Manager) Close(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[key]; ok {
		c.cancel()
		delete(m.conns, key)
	}
}

// CloseAll tears down every connection. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.conns {
		c.cancel()
		delete(m.conns, key)
	}
}

// IsOpen reports whether a connection (live or reconnecting) exists for
// key. Test hook; no mutation.
func (m *Manager) IsOpen(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conns[key]
	return ok
}

type conn struct {
	key    Key
	ctx    context.Context
	cancel context.CancelFunc
	m      *Manager
}

// run dials, pumps, and redials with a fixed backoff until the key is
// closed. Each successful dial re-fires the connected callback.
func (c *conn) run() {
	id := uuid.NewString()
	log := c.m.log.With(
		zap.String("conn", id),
		zap.String("scope", string(c.key.Scope)),
		zap.String("game", c.key.GameID))
	url := c.key.URL(c.m.base)

	for {
		ws, _, err := websocket.Dial(c.ctx, url, nil)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			log.Warn("dial failed, retrying", zap.Error(err))
			if !c.sleep() {
				return
			}
			continue
		}

		log.Info("connected")
		if c.m.onConnected != nil {
			c.m.onConnected(c.key)
		}

		c.pump(ws, log)
		_ = ws.Close(websocket.StatusNormalClosure, "bye")

		if c.ctx.Err() != nil {
			return
		}
		log.Warn("connection lost, reconnecting")
		if !c.sleep() {
			return
		}
	}
}

// pump reads until the connection dies. A keepalive ticker runs alongside
// for exactly the lifetime of this connection.
func (c *conn) pump(ws *websocket.Conn, log *zap.Logger) {
	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	go c.keepAlive(ctx, ws, log)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					log.Debug("read error", zap.Error(err))
				}
			}
			return
		}

		event, err := protocol.Decode(data)
		if err != nil {
			log.Warn("dropping undecodable frame", zap.Error(err))
			continue
		}
		if event == nil {
			// Unknown event type; older client, newer server.
			continue
		}

		select {
		case c.m.events <- Inbound{Key: c.key, Event: event}:
		case <-c.ctx.Done():
			// Key was closed while we held an event; drop it.
			return
		}
	}
}

func (c *conn) keepAlive(ctx context.Context, ws *websocket.Conn, log *zap.Logger) {
	ticker := time.NewTicker(c.m.keepalive)
	defer ticker.Stop()

	payload, _ := json.Marshal(protocol.NewKeepalive())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
				// Non-fatal here: the read loop notices the dead
				// connection and drives the reconnect.
				log.Debug("keepalive dropped", zap.Error(err))
			}
		}
	}
}

func (c *conn) sleep() bool {
	select {
	case <-time.After(c.m.backoff):
		return true
	case <-c.ctx.Done():
		return false
	}
}
