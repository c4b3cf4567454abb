package memory

import (
	"context"
	"sync"
	"time"

	"syncboard/internal/core/ports"
)

// MemoryRevocationRepository is the single-process fallback for the
// token denylist when Redis is not configured.
type MemoryRevocationRepository struct {
	revoked map[string]time.Time
	mu      sync.Mutex
}

func NewMemoryRevocationRepository() ports.RevocationRepository {
	return &MemoryRevocationRepository{
		revoked: make(map[string]time.Time),
	}
}

func (r *MemoryRevocationRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (r *MemoryRevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, exists := r.revoked[tokenID]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		// Token would have expired on its own by now.
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
