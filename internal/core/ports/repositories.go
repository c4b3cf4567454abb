package ports

import (
	"context"
	"time"

	"syncboard/internal/core/domain"
)

// PresenceRepository holds the live room membership table. It is the only
// shared mutable state in the collaboration layer and is always in-memory:
// presence is ephemeral and dies with the process.
type PresenceRepository interface {
	Join(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID, member domain.Member) error
	Leave(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) error
	Member(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, error)
	Members(ctx context.Context, room domain.RoomKey) ([]domain.Member, error)
	Connections(ctx context.Context, room domain.RoomKey) ([]domain.ConnectionID, error)
	// JoinCount returns how many joins the room has ever seen, counting
	// departed members. Used for deterministic color assignment.
	JoinCount(ctx context.Context, room domain.RoomKey) (int, error)
	RoomCount(ctx context.Context) (int, error)
}

// RevocationRepository records token ids that have been revoked before
// their natural expiry. Entries carry a TTL so the store stays bounded.
type RevocationRepository interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
