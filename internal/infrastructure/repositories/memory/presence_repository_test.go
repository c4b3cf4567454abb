package memory

import (
	"context"
	"testing"
	"time"

	"syncboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestMemoryPresenceRepository_JoinAndMembers(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	base := time.Now()
	err := repo.Join(ctx, room, "conn-1", domain.Member{
		Identity: domain.Identity{ID: "user-1", DisplayName: "Ada"},
		Color:    "#e6194b",
		JoinedAt: base,
	})
	assert.NoError(t, err)

	err = repo.Join(ctx, room, "conn-2", domain.Member{
		Identity: domain.Identity{ID: "user-2", DisplayName: "Grace"},
		Color:    "#3cb44b",
		JoinedAt: base.Add(time.Second),
	})
	assert.NoError(t, err)

	members, err := repo.Members(ctx, room)
	assert.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, domain.UserID("user-1"), members[0].Identity.ID)
	assert.Equal(t, domain.UserID("user-2"), members[1].Identity.ID)
}

func TestMemoryPresenceRepository_DuplicateJoin(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	err := repo.Join(ctx, room, "conn-1", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.NoError(t, err)

	err = repo.Join(ctx, room, "conn-1", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
}

func TestMemoryPresenceRepository_LeaveDropsEmptyRoom(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	err := repo.Join(ctx, room, "conn-1", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.NoError(t, err)

	count, err := repo.RoomCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	err = repo.Leave(ctx, room, "conn-1")
	assert.NoError(t, err)

	count, err = repo.RoomCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	// Second leave for the same connection reports not joined.
	err = repo.Leave(ctx, room, "conn-1")
	assert.ErrorIs(t, err, domain.ErrNotJoined)
}

func TestMemoryPresenceRepository_Member(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.PersonalRoom("user-1")

	_, err := repo.Member(ctx, room, "conn-1")
	assert.ErrorIs(t, err, domain.ErrNotJoined)

	err = repo.Join(ctx, room, "conn-1", domain.Member{
		Identity: domain.Identity{ID: "user-1", DisplayName: "Ada"},
		Color:    "#e6194b",
	})
	assert.NoError(t, err)

	member, err := repo.Member(ctx, room, "conn-1")
	assert.NoError(t, err)
	assert.Equal(t, "#e6194b", member.Color)
}

func TestMemoryPresenceRepository_Connections(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.PersonalRoom("user-1")

	conns, err := repo.Connections(ctx, room)
	assert.NoError(t, err)
	assert.Empty(t, conns)

	err = repo.Join(ctx, room, "conn-1", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.NoError(t, err)
	err = repo.Join(ctx, room, "conn-2", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.NoError(t, err)

	conns, err = repo.Connections(ctx, room)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []domain.ConnectionID{"conn-1", "conn-2"}, conns)
}

func TestMemoryPresenceRepository_JoinCountMonotonic(t *testing.T) {
	repo := NewMemoryPresenceRepository()
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	count, err := repo.JoinCount(ctx, room)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	err = repo.Join(ctx, room, "conn-1", domain.Member{Identity: domain.Identity{ID: "user-1"}})
	assert.NoError(t, err)
	err = repo.Join(ctx, room, "conn-2", domain.Member{Identity: domain.Identity{ID: "user-2"}})
	assert.NoError(t, err)

	count, err = repo.JoinCount(ctx, room)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	// Leaving does not decrement the ordinal while the room is occupied.
	err = repo.Leave(ctx, room, "conn-1")
	assert.NoError(t, err)

	count, err = repo.JoinCount(ctx, room)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
