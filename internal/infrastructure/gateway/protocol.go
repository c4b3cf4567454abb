package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"syncboard/internal/core/domain"
)

// Server to client event types.
const (
	EventPresenceUpdate = "presence:update"
	EventPresenceLeave  = "presence:leave"
	EventCursorMove     = "cursor:move"
	EventNotification   = "notification"
	EventError          = "error"
)

// Client to server events are EventCursorMove plus any "board:"-prefixed
// type. Board payloads are opaque to the gateway and relayed verbatim.
const boardEventPrefix = "board:"

// Envelope is the frame exchanged on every connection.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CursorMoveRequest is the client-submitted cursor position. Identity
// and color fields, if present, are ignored and re-derived server-side.
type CursorMoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CursorMoveEvent is the relayed cursor position with server-derived
// identity metadata.
type CursorMoveEvent struct {
	Identity  domain.Identity `json:"identity"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Color     string          `json:"color"`
	Timestamp int64           `json:"timestamp"`
}

// PresenceUpdateEvent announces a join, carrying the full member
// snapshot so clients can reconcile without special-casing themselves.
type PresenceUpdateEvent struct {
	Identity domain.Identity `json:"identity"`
	Color    string          `json:"color"`
	Members  []domain.Member `json:"members"`
}

// PresenceLeaveEvent announces a departure to remaining members.
type PresenceLeaveEvent struct {
	Identity domain.Identity `json:"identity"`
}

// ErrorEvent surfaces a per-message failure back to the sender.
type ErrorEvent struct {
	Message string `json:"message"`
}

func newCursorMoveEvent(member domain.Member, req CursorMoveRequest) CursorMoveEvent {
	return CursorMoveEvent{
		Identity:  member.Identity,
		X:         req.X,
		Y:         req.Y,
		Color:     member.Color,
		Timestamp: time.Now().UnixMilli(),
	}
}

func isBoardEvent(eventType string) bool {
	return strings.HasPrefix(eventType, boardEventPrefix)
}

// parseChannel resolves the channel selector from handshake metadata.
// An absent selector defaults to the general notification channel.
func parseChannel(raw string) (domain.Channel, error) {
	switch raw {
	case "", string(domain.ChannelGeneral):
		return domain.ChannelGeneral, nil
	case string(domain.ChannelRetro):
		return domain.ChannelRetro, nil
	default:
		return "", fmt.Errorf("unknown channel: %s", raw)
	}
}

func marshalEnvelope(eventType string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Envelope{Type: eventType, Payload: data}, nil
}
