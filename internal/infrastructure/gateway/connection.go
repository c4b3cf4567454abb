package gateway

import (
	"sync"
	"time"

	"syncboard/internal/core/domain"

	"github.com/gorilla/websocket"
)

// Connection is the gateway-owned state of one admitted WebSocket.
// Identity is set exactly once at admission and never mutated.
type Connection struct {
	ID       domain.ConnectionID
	Identity domain.Identity
	Channel  domain.Channel
	Room     domain.RoomKey

	ws           *websocket.Conn
	writeTimeout time.Duration

	mu    sync.Mutex
	state domain.ConnectionState
}

func newConnection(id domain.ConnectionID, identity domain.Identity, channel domain.Channel, room domain.RoomKey, ws *websocket.Conn, writeTimeout time.Duration) *Connection {
	return &Connection{
		ID:           id,
		Identity:     identity,
		Channel:      channel,
		Room:         room,
		ws:           ws,
		writeTimeout: writeTimeout,
		state:        domain.StateConnecting,
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// markJoined transitions Connecting to Joined. Returns false if the
// connection already left (disconnect raced the join).
func (c *Connection) markJoined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateConnecting {
		return false
	}
	c.state = domain.StateJoined
	return true
}

// markLeft transitions to the terminal Left state. Returns the previous
// state so callers can tell whether leave side effects already ran.
func (c *Connection) markLeft() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = domain.StateLeft
	return prev
}

// WriteEvent marshals and sends an event. Writes are serialized per
// connection; gorilla websocket connections support one writer at a time.
func (c *Connection) WriteEvent(eventType string, payload interface{}) error {
	env, err := marshalEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	return c.WriteEnvelope(env)
}

// WriteEnvelope sends a pre-built frame, used for verbatim relay.
func (c *Connection) WriteEnvelope(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.StateLeft {
		return domain.ErrConnectionClosed
	}
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(env)
}

func (c *Connection) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

func (c *Connection) close() {
	c.ws.Close()
}
