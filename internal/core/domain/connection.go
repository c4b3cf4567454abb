package domain

type ConnectionID string

// Channel is a top-level partition of the gateway's connections.
type Channel string

const (
	ChannelGeneral Channel = "general"
	ChannelRetro   Channel = "retro"
)

// ConnectionState tracks a connection through its lifecycle within a room.
// Left is terminal: a reconnect is modeled as a brand-new connection.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateJoined
	StateLeft
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}
