package ports

import (
	"context"

	"syncboard/internal/core/domain"
)

// PresenceService is the membership side of the presence and cursor
// broadcaster: it decides who is in a room and what color they render as.
// Fan-out over live sockets belongs to the gateway, not here.
type PresenceService interface {
	// Join adds the identity to the room and returns the member entry
	// (with its assigned color) plus a snapshot of all current members,
	// including the joiner.
	Join(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID, identity domain.Identity) (domain.Member, []domain.Member, error)
	// Leave removes the connection from the room. It is idempotent:
	// a second leave for the same connection returns domain.ErrNotJoined
	// and mutates nothing.
	Leave(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, []domain.Member, error)
	Members(ctx context.Context, room domain.RoomKey) ([]domain.Member, error)
	// MemberFor resolves the member entry of a joined connection, used to
	// re-derive identity and color on relayed cursor events.
	MemberFor(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, error)
	RoomCount(ctx context.Context) (int, error)
}
