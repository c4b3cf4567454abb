package services

import (
	"context"
	"sync"
	"time"

	"syncboard/internal/core/domain"
	"syncboard/internal/core/ports"
)

// cursorPalette is the fixed set of display colors. A member's color is
// the palette entry at its room join-order index, so clients can compute
// the same mapping without trusting the server payload.
var cursorPalette = []string{
	"#e6194b", // red
	"#3cb44b", // green
	"#4363d8", // blue
	"#f58231", // orange
	"#911eb4", // purple
	"#42d4f4", // cyan
	"#f032e6", // magenta
	"#bfef45", // lime
	"#fabed4", // pink
	"#469990", // teal
}

// ColorForJoinIndex maps a room join-order index into the fixed palette.
func ColorForJoinIndex(index int) string {
	return cursorPalette[index%len(cursorPalette)]
}

type presenceService struct {
	repo ports.PresenceRepository

	// Serializes join/leave sequences so the join-order index read and
	// the membership write stay atomic (single-writer invariant).
	mu sync.Mutex
}

func NewPresenceService(repo ports.PresenceRepository) ports.PresenceService {
	return &presenceService{repo: repo}
}

func (s *presenceService) Join(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID, identity domain.Identity) (domain.Member, []domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.repo.JoinCount(ctx, room)
	if err != nil {
		return domain.Member{}, nil, err
	}

	member := domain.Member{
		Identity: identity,
		Color:    ColorForJoinIndex(index),
		JoinedAt: time.Now(),
	}

	if err := s.repo.Join(ctx, room, connID, member); err != nil {
		return domain.Member{}, nil, err
	}

	members, err := s.repo.Members(ctx, room)
	if err != nil {
		return domain.Member{}, nil, err
	}
	return member, members, nil
}

func (s *presenceService) Leave(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, []domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.repo.Member(ctx, room, connID)
	if err != nil {
		return domain.Member{}, nil, err
	}
	if err := s.repo.Leave(ctx, room, connID); err != nil {
		return domain.Member{}, nil, err
	}

	remaining, err := s.repo.Members(ctx, room)
	if err != nil {
		return member, nil, err
	}
	return member, remaining, nil
}

func (s *presenceService) Members(ctx context.Context, room domain.RoomKey) ([]domain.Member, error) {
	return s.repo.Members(ctx, room)
}

func (s *presenceService) MemberFor(ctx context.Context, room domain.RoomKey, connID domain.ConnectionID) (domain.Member, error) {
	return s.repo.Member(ctx, room, connID)
}

func (s *presenceService) RoomCount(ctx context.Context) (int, error) {
	return s.repo.RoomCount(ctx)
}
