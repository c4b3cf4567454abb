package memory

import (
	"context"
	"sort"
	"sync"

	"syncboard/internal/core/domain"
	"syncboard/internal/core/ports"
)

type roomState struct {
	members map[domain.ConnectionID]domain.Member
	joins   int
}

// MemoryPresenceRepository keeps the room membership table in process
// memory. Rooms are created lazily on first join and dropped as soon as
// the last member leaves.
type MemoryPresenceRepository struct {
	rooms map[domain.RoomKey]*roomState
	mu    sync.RWMutex
}

func NewMemoryPresenceRepository() ports.PresenceRepository {
	return &MemoryPresenceRepository{
		rooms: make(map[domain.RoomKey]*roomState),
	}
}

func (r *MemoryPresenceRepository) Join(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID, member domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.rooms[room]
	if !exists {
		state = &roomState{members: make(map[domain.ConnectionID]domain.Member)}
		r.rooms[room] = state
	}

	if _, exists := state.members[connID]; exists {
		return domain.ErrAlreadyJoined
	}

	state.members[connID] = member
	state.joins++
	return nil
}

func (r *MemoryPresenceRepository) Leave(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.rooms[room]
	if !exists {
		return domain.ErrNotJoined
	}
	if _, exists := state.members[connID]; !exists {
		return domain.ErrNotJoined
	}

	delete(state.members, connID)
	if len(state.members) == 0 {
		delete(r.rooms, room)
	}
	return nil
}

func (r *MemoryPresenceRepository) Member(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.rooms[room]
	if !exists {
		return domain.Member{}, domain.ErrNotJoined
	}
	member, exists := state.members[connID]
	if !exists {
		return domain.Member{}, domain.ErrNotJoined
	}
	return member, nil
}

func (r *MemoryPresenceRepository) Members(ctx context.Context, room domain.RoomKey) ([]domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.rooms[room]
	if !exists {
		return nil, nil
	}

	members := make([]domain.Member, 0, len(state.members))
	for _, member := range state.members {
		members = append(members, member)
	}

	// Stable ordering keeps member lists reproducible for clients.
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].Identity.ID < members[j].Identity.ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r *MemoryPresenceRepository) Connections(ctx context.Context, room domain.RoomKey) ([]domain.ConnectionID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.rooms[room]
	if !exists {
		return nil, nil
	}

	conns := make([]domain.ConnectionID, 0, len(state.members))
	for connID := range state.members {
		conns = append(conns, connID)
	}
	return conns, nil
}

func (r *MemoryPresenceRepository) JoinCount(ctx context.Context, room domain.RoomKey) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.rooms[room]
	if !exists {
		return 0, nil
	}
	return state.joins, nil
}

func (r *MemoryPresenceRepository) RoomCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms), nil
}
