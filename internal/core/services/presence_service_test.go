package services

import (
	"context"
	"fmt"
	"testing"

	"syncboard/internal/core/domain"
	"syncboard/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
)

func TestPresenceService_JoinReturnsMemberAndRoster(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	member, members, err := svc.Join(ctx, room, "conn-1", domain.Identity{ID: "user-1", DisplayName: "Ada"})
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("user-1"), member.Identity.ID)
	assert.Equal(t, ColorForJoinIndex(0), member.Color)
	assert.Len(t, members, 1)

	second, members, err := svc.Join(ctx, room, "conn-2", domain.Identity{ID: "user-2", DisplayName: "Grace"})
	assert.NoError(t, err)
	assert.Equal(t, ColorForJoinIndex(1), second.Color)
	assert.Len(t, members, 2)
}

func TestPresenceService_ColorsFollowJoinOrder(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.SessionRoom("palette")

	// Joins past palette size wrap around.
	for i := 0; i < 12; i++ {
		connID := domain.ConnectionID(fmt.Sprintf("conn-%d", i))
		userID := domain.UserID(fmt.Sprintf("user-%d", i))
		member, _, err := svc.Join(ctx, room, connID, domain.Identity{ID: userID})
		assert.NoError(t, err)
		assert.Equal(t, ColorForJoinIndex(i), member.Color)
	}
	assert.Equal(t, ColorForJoinIndex(0), ColorForJoinIndex(10))
}

func TestPresenceService_ColorIndexSurvivesLeaves(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.SessionRoom("churn")

	_, _, err := svc.Join(ctx, room, "conn-1", domain.Identity{ID: "user-1"})
	assert.NoError(t, err)
	_, _, err = svc.Join(ctx, room, "conn-2", domain.Identity{ID: "user-2"})
	assert.NoError(t, err)

	_, _, err = svc.Leave(ctx, room, "conn-1")
	assert.NoError(t, err)

	// Join ordinal keeps advancing; departed members do not free their slot.
	member, _, err := svc.Join(ctx, room, "conn-3", domain.Identity{ID: "user-3"})
	assert.NoError(t, err)
	assert.Equal(t, ColorForJoinIndex(2), member.Color)
}

func TestPresenceService_LeaveReturnsDepartedAndRemaining(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	_, _, err := svc.Join(ctx, room, "conn-1", domain.Identity{ID: "user-1", DisplayName: "Ada"})
	assert.NoError(t, err)
	_, _, err = svc.Join(ctx, room, "conn-2", domain.Identity{ID: "user-2", DisplayName: "Grace"})
	assert.NoError(t, err)

	departed, remaining, err := svc.Leave(ctx, room, "conn-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("user-1"), departed.Identity.ID)
	assert.Len(t, remaining, 1)
	assert.Equal(t, domain.UserID("user-2"), remaining[0].Identity.ID)
}

func TestPresenceService_LeaveUnknownConnection(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.SessionRoom("sprint-review-42")

	_, _, err := svc.Leave(ctx, room, "conn-ghost")
	assert.ErrorIs(t, err, domain.ErrNotJoined)
}

func TestPresenceService_RoomsAreIsolated(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()

	_, _, err := svc.Join(ctx, domain.SessionRoom("room-a"), "conn-1", domain.Identity{ID: "user-1"})
	assert.NoError(t, err)
	_, _, err = svc.Join(ctx, domain.SessionRoom("room-b"), "conn-2", domain.Identity{ID: "user-2"})
	assert.NoError(t, err)

	membersA, err := svc.Members(ctx, domain.SessionRoom("room-a"))
	assert.NoError(t, err)
	assert.Len(t, membersA, 1)
	assert.Equal(t, domain.UserID("user-1"), membersA[0].Identity.ID)

	// Same user in two rooms gets an independent color per room.
	member, _, err := svc.Join(ctx, domain.SessionRoom("room-b"), "conn-3", domain.Identity{ID: "user-1"})
	assert.NoError(t, err)
	assert.Equal(t, ColorForJoinIndex(1), member.Color)
}

func TestPresenceService_MemberFor(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()
	room := domain.PersonalRoom("user-1")

	joined, _, err := svc.Join(ctx, room, "conn-1", domain.Identity{ID: "user-1", DisplayName: "Ada"})
	assert.NoError(t, err)

	member, err := svc.MemberFor(ctx, room, "conn-1")
	assert.NoError(t, err)
	assert.Equal(t, joined.Color, member.Color)
	assert.Equal(t, "Ada", member.Identity.DisplayName)
}

func TestPresenceService_RoomCount(t *testing.T) {
	svc := NewPresenceService(memory.NewMemoryPresenceRepository())
	ctx := context.Background()

	count, err := svc.RoomCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	_, _, err = svc.Join(ctx, domain.SessionRoom("room-a"), "conn-1", domain.Identity{ID: "user-1"})
	assert.NoError(t, err)
	_, _, err = svc.Join(ctx, domain.PersonalRoom("user-2"), "conn-2", domain.Identity{ID: "user-2"})
	assert.NoError(t, err)

	count, err = svc.RoomCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	// Emptying a room removes it from the count.
	_, _, err = svc.Leave(ctx, domain.SessionRoom("room-a"), "conn-1")
	assert.NoError(t, err)

	count, err = svc.RoomCount(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
