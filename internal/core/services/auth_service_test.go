package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"syncboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

type fakeRevocationRepo struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocationRepo() *fakeRevocationRepo {
	return &fakeRevocationRepo{revoked: make(map[string]bool)}
}

func (r *fakeRevocationRepo) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = true
	return nil
}

func (r *fakeRevocationRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[tokenID], nil
}

func TestAuthService_GenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, 24*time.Hour, nil)

	token, err := svc.GenerateToken("user-123", "Ada Lovelace", "ada@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("user-123"), claims.UserID())
	assert.Equal(t, "Ada Lovelace", claims.DisplayName)
	assert.Equal(t, "ada@example.com", claims.Email)

	identity := claims.Identity()
	assert.Equal(t, domain.UserID("user-123"), identity.ID)
	assert.Equal(t, "Ada Lovelace", identity.DisplayName)
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "expired one second ago", ttl: -time.Second},
		{name: "expired one hour ago", ttl: -time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService("test-secret", tt.ttl, 24*time.Hour, nil)

			token, err := svc.GenerateToken("user-123", "Ada Lovelace", "")
			assert.NoError(t, err)

			_, err = svc.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-a", time.Hour, 24*time.Hour, nil)
	verifier := NewAuthService("secret-b", time.Hour, 24*time.Hour, nil)

	token, err := issuer.GenerateToken("user-123", "Ada Lovelace", "")
	assert.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateToken_Malformed(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, 24*time.Hour, nil)

	_, err := svc.ValidateToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateToken_Missing(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, 24*time.Hour, nil)

	_, err := svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestAuthService_RevokeToken(t *testing.T) {
	repo := newFakeRevocationRepo()
	svc := NewAuthService("test-secret", time.Hour, 24*time.Hour, repo)

	token, err := svc.GenerateToken("user-123", "Ada Lovelace", "")
	assert.NoError(t, err)

	ctx := context.Background()

	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)

	err = svc.RevokeToken(ctx, token)
	assert.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestAuthService_GenerateRefreshToken(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour, 24*time.Hour, nil)

	token, err := svc.GenerateRefreshToken("user-123")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("user-123"), claims.UserID())
}
