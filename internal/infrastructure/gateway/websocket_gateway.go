package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"syncboard/internal/core/domain"
	"syncboard/internal/core/ports"
	"syncboard/internal/core/services"
	"syncboard/internal/infrastructure/monitoring"
	"syncboard/pkg/validation"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rejection reasons surfaced to clients on a refused handshake.
const (
	ReasonAuthRequired = "Authentication required"
	ReasonInvalidToken = "Invalid or expired token"
)

// Options carries the tunables of the gateway, sourced from config.
type Options struct {
	PingInterval     time.Duration
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	SendBufferSize   int
	AllowedOrigins   []string

	MessagesPerSecond   float64
	MessageBurst        int
	ViolationsPerSecond float64
	ViolationBurst      int
	MaxMessageSizeBytes int64
}

// DefaultOptions returns gateway tunables matching the config defaults.
func DefaultOptions() Options {
	return Options{
		PingInterval:        30 * time.Second,
		PongTimeout:         60 * time.Second,
		WriteTimeout:        10 * time.Second,
		HandshakeTimeout:    5 * time.Second,
		SendBufferSize:      32,
		AllowedOrigins:      []string{"*"},
		MessagesPerSecond:   120,
		MessageBurst:        240,
		ViolationsPerSecond: 1,
		ViolationBurst:      5,
		MaxMessageSizeBytes: 64 * 1024,
	}
}

// Gateway owns the logical channels and the registry of admitted
// connections. All room membership mutation flows through it.
type Gateway struct {
	authService services.AuthService
	presence    ports.PresenceService
	metrics     *monitoring.PrometheusCollector // Can be nil in tests

	connections map[domain.ConnectionID]*Connection
	rooms       map[domain.RoomKey]map[domain.ConnectionID]*Connection
	mu          sync.RWMutex

	opts     Options
	upgrader websocket.Upgrader

	logger *zap.SugaredLogger
}

func NewGateway(authService services.AuthService, presence ports.PresenceService, metrics *monitoring.PrometheusCollector, opts Options, logger *zap.SugaredLogger) *Gateway {
	g := &Gateway{
		authService: authService,
		presence:    presence,
		metrics:     metrics,
		connections: make(map[domain.ConnectionID]*Connection),
		rooms:       make(map[domain.RoomKey]map[domain.ConnectionID]*Connection),
		opts:        opts,
		logger:      logger,
	}
	g.upgrader = websocket.Upgrader{
		CheckOrigin:     g.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (service-to-service, tests) send no origin.
		return true
	}
	for _, allowed := range g.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// HandleWebSocket is the single entry point for both channels. The
// credential is verified before the upgrade completes so a rejected
// attempt never reaches room-join logic.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	channel, err := parseChannel(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if channel == domain.ChannelRetro {
		if err := validation.ValidateSessionID(sessionID); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	token := bearerToken(r)
	start := time.Now()
	claims, err := g.authenticate(r.Context(), token)
	if g.metrics != nil {
		g.metrics.ObserveHandshakeDuration(time.Since(start))
	}
	if err != nil {
		reason := ReasonInvalidToken
		if errors.Is(err, services.ErrMissingToken) {
			reason = ReasonAuthRequired
		}
		if g.metrics != nil {
			g.metrics.RecordHandshakeRejected(reason)
		}
		g.logger.Warnw("rejected connection attempt",
			"channel", channel,
			"remote_addr", r.RemoteAddr,
			"reason", reason,
		)
		http.Error(w, reason, http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	identity := claims.Identity()
	room := domain.PersonalRoom(identity.ID)
	if channel == domain.ChannelRetro {
		room = domain.SessionRoom(sessionID)
	}

	conn := newConnection(
		domain.ConnectionID(uuid.New().String()),
		identity,
		channel,
		room,
		ws,
		g.opts.WriteTimeout,
	)
	defer conn.close()

	if err := g.admit(r.Context(), conn); err != nil {
		g.logger.Errorw("failed to admit connection",
			"connection_id", conn.ID,
			"user_id", identity.ID,
			"room", room,
			"error", err,
		)
		return
	}

	g.logger.Infow("connection admitted",
		"connection_id", conn.ID,
		"user_id", identity.ID,
		"channel", channel,
		"room", room,
	)

	g.serve(conn)
}

// authenticate runs the token verifier under the handshake timeout.
// An attempt that never resolves counts as a rejection.
func (g *Gateway) authenticate(ctx context.Context, token string) (*services.Claims, error) {
	if token == "" {
		return nil, services.ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.HandshakeTimeout)
	defer cancel()

	type result struct {
		claims *services.Claims
		err    error
	}
	done := make(chan result, 1)
	go func() {
		claims, err := g.authService.ValidateToken(ctx, token)
		done <- result{claims, err}
	}()

	select {
	case res := <-done:
		return res.claims, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("authentication timed out: %w", ctx.Err())
	}
}

// admit registers the connection, joins it to its room and fans out the
// presence update to every room member, the joiner included.
func (g *Gateway) admit(ctx context.Context, conn *Connection) error {
	member, members, err := g.presence.Join(ctx, conn.Room, conn.ID, conn.Identity)
	if err != nil {
		return fmt.Errorf("room join failed: %w", err)
	}

	if !conn.markJoined() {
		// Disconnect raced the join; undo the presence entry.
		g.presence.Leave(ctx, conn.Room, conn.ID)
		return domain.ErrConnectionClosed
	}

	g.mu.Lock()
	g.connections[conn.ID] = conn
	roomConns, exists := g.rooms[conn.Room]
	if !exists {
		roomConns = make(map[domain.ConnectionID]*Connection)
		g.rooms[conn.Room] = roomConns
	}
	roomConns[conn.ID] = conn
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordConnected(conn.Channel)
		g.metrics.SetRoomMembers(conn.Room, len(members))
		if count, err := g.presence.RoomCount(ctx); err == nil {
			g.metrics.SetRoomCount(count)
		}
	}

	env, err := marshalEnvelope(EventPresenceUpdate, PresenceUpdateEvent{
		Identity: member.Identity,
		Color:    member.Color,
		Members:  members,
	})
	if err != nil {
		return err
	}
	g.broadcast(conn.Room, "", env)
	return nil
}

// serve runs the per-connection dispatch loop: one reader goroutine
// feeding a select over inbound messages, read errors and the ping
// ticker. Events from one connection are relayed in emission order.
func (g *Gateway) serve(conn *Connection) {
	if g.opts.MaxMessageSizeBytes > 0 {
		conn.ws.SetReadLimit(g.opts.MaxMessageSizeBytes)
	}
	conn.ws.SetReadDeadline(time.Now().Add(g.opts.PongTimeout))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(g.opts.PongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(g.opts.PingInterval)
	defer pingTicker.Stop()

	bufferSize := g.opts.SendBufferSize
	if bufferSize <= 0 {
		bufferSize = 32
	}
	messageChan := make(chan Envelope, bufferSize)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var env Envelope
			if err := conn.ws.ReadJSON(&env); err != nil {
				errorChan <- err
				return
			}
			conn.ws.SetReadDeadline(time.Now().Add(g.opts.PongTimeout))
			messageChan <- env
		}
	}()

	messageLimiter := rate.NewLimiter(rate.Limit(g.opts.MessagesPerSecond), g.opts.MessageBurst)
	violationLimiter := rate.NewLimiter(rate.Limit(g.opts.ViolationsPerSecond), g.opts.ViolationBurst)

	for {
		select {
		case env := <-messageChan:
			if !messageLimiter.Allow() {
				g.logger.Warnw("message rate limit exceeded, dropping",
					"connection_id", conn.ID,
					"user_id", conn.Identity.ID,
				)
				continue
			}
			if err := g.handleMessage(conn, env); err != nil {
				// A malformed frame is dropped, not fatal. Repeated
				// violations exhaust the limiter and disconnect.
				if g.metrics != nil {
					g.metrics.RecordProtocolViolation()
				}
				g.logger.Warnw("protocol violation",
					"connection_id", conn.ID,
					"user_id", conn.Identity.ID,
					"type", env.Type,
					"error", err,
				)
				conn.WriteEvent(EventError, ErrorEvent{Message: err.Error()})
				if !violationLimiter.Allow() {
					g.logger.Warnw("repeated protocol violations, disconnecting",
						"connection_id", conn.ID,
						"user_id", conn.Identity.ID,
					)
					g.teardown(conn, "protocol violations")
					return
				}
			}

		case <-pingTicker.C:
			if err := conn.writePing(); err != nil {
				g.logger.Infow("ping failed",
					"connection_id", conn.ID,
					"user_id", conn.Identity.ID,
					"error", err,
				)
				g.teardown(conn, "ping failure")
				return
			}

		case err := <-errorChan:
			reason := "clean close"
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				reason = "transport error"
				g.logger.Infow("read error",
					"connection_id", conn.ID,
					"user_id", conn.Identity.ID,
					"error", err,
				)
			}
			g.teardown(conn, reason)
			return
		}
	}
}

func (g *Gateway) handleMessage(conn *Connection, env Envelope) error {
	if env.Type == "" {
		return fmt.Errorf("message type is required")
	}

	switch {
	case env.Type == EventCursorMove:
		return g.handleCursorMove(conn, env)
	case isBoardEvent(env.Type):
		return g.handleBoardEvent(conn, env)
	default:
		return fmt.Errorf("unknown message type: %s", env.Type)
	}
}

// handleCursorMove relays a cursor position to the rest of the room.
// Identity and color are derived from the admitted connection, never
// taken from the payload, so they cannot be spoofed.
func (g *Gateway) handleCursorMove(conn *Connection, env Envelope) error {
	if conn.State() != domain.StateJoined {
		return domain.ErrNotJoined
	}

	var req CursorMoveRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return fmt.Errorf("invalid cursor payload: %w", err)
	}

	member, err := g.presence.MemberFor(context.Background(), conn.Room, conn.ID)
	if err != nil {
		return err
	}

	out, err := marshalEnvelope(EventCursorMove, newCursorMoveEvent(member, req))
	if err != nil {
		return err
	}

	// The sender already knows its own position.
	g.broadcast(conn.Room, conn.ID, out)
	if g.metrics != nil {
		g.metrics.RecordCursorEvent()
	}
	return nil
}

// handleBoardEvent relays an opaque board edit verbatim to the rest of
// the room. Board semantics live with the retro board domain, not here.
func (g *Gateway) handleBoardEvent(conn *Connection, env Envelope) error {
	if conn.State() != domain.StateJoined {
		return domain.ErrNotJoined
	}
	if conn.Channel != domain.ChannelRetro {
		return fmt.Errorf("board events are only valid on the retro channel")
	}

	g.broadcast(conn.Room, conn.ID, env)
	if g.metrics != nil {
		g.metrics.RecordBoardEvent()
	}
	return nil
}

// teardown removes the connection from its room and notifies remaining
// members. It is idempotent: the state transition guards against a
// disconnect racing an explicit leave, so presence:leave is emitted at
// most once per connection.
func (g *Gateway) teardown(conn *Connection, reason string) {
	prev := conn.markLeft()
	if prev == domain.StateLeft {
		return
	}

	g.mu.Lock()
	delete(g.connections, conn.ID)
	if roomConns, exists := g.rooms[conn.Room]; exists {
		delete(roomConns, conn.ID)
		if len(roomConns) == 0 {
			delete(g.rooms, conn.Room)
		}
	}
	g.mu.Unlock()

	ctx := context.Background()
	if prev == domain.StateJoined {
		member, remaining, err := g.presence.Leave(ctx, conn.Room, conn.ID)
		if err != nil && !errors.Is(err, domain.ErrNotJoined) {
			g.logger.Errorw("presence cleanup failed",
				"connection_id", conn.ID,
				"user_id", conn.Identity.ID,
				"room", conn.Room,
				"error", err,
			)
		}
		if err == nil {
			env, merr := marshalEnvelope(EventPresenceLeave, PresenceLeaveEvent{Identity: member.Identity})
			if merr == nil {
				g.broadcast(conn.Room, conn.ID, env)
			}
			if g.metrics != nil {
				g.metrics.SetRoomMembers(conn.Room, len(remaining))
			}
		}
	}

	if g.metrics != nil {
		g.metrics.RecordDisconnected(conn.Channel)
		if count, err := g.presence.RoomCount(ctx); err == nil {
			g.metrics.SetRoomCount(count)
		}
	}

	g.logger.Infow("connection closed",
		"connection_id", conn.ID,
		"user_id", conn.Identity.ID,
		"room", conn.Room,
		"reason", reason,
	)
}

// broadcast fans an event out to the room, optionally excluding one
// connection. Write failures are isolated per connection.
func (g *Gateway) broadcast(room domain.RoomKey, exclude domain.ConnectionID, env Envelope) {
	g.mu.RLock()
	targets := make([]*Connection, 0, len(g.rooms[room]))
	for id, conn := range g.rooms[room] {
		if id == exclude {
			continue
		}
		targets = append(targets, conn)
	}
	g.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteEnvelope(env); err != nil {
			g.logger.Warnw("broadcast write failed",
				"connection_id", conn.ID,
				"user_id", conn.Identity.ID,
				"room", room,
				"error", err,
			)
		}
	}
}

// NotifyUser delivers a server-originated payload to every open
// connection in the user's personal room and reports how many received it.
func (g *Gateway) NotifyUser(ctx context.Context, userID domain.UserID, payload json.RawMessage) (int, error) {
	room := domain.PersonalRoom(userID)
	env := Envelope{Type: EventNotification, Payload: payload}

	g.mu.RLock()
	targets := make([]*Connection, 0, len(g.rooms[room]))
	for _, conn := range g.rooms[room] {
		targets = append(targets, conn)
	}
	g.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.WriteEnvelope(env); err != nil {
			g.logger.Warnw("notification write failed",
				"connection_id", conn.ID,
				"user_id", userID,
				"error", err,
			)
			continue
		}
		delivered++
	}

	if g.metrics != nil && delivered > 0 {
		g.metrics.RecordNotificationsDelivered(delivered)
	}
	return delivered, nil
}

// ConnectionCount reports the number of admitted connections.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// bearerToken extracts the credential from the auth_token query
// parameter or an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("auth_token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
