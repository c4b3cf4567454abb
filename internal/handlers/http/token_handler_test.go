package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"syncboard/internal/core/services"
	"syncboard/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]bool)}
}

func (r *fakeRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = true
	return nil
}

func (r *fakeRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[tokenID], nil
}

func newTokenTestRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := services.NewAuthService("test-secret", time.Hour, 24*time.Hour, nil)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	NewTokenHandler(auth, time.Hour).SetupRoutes(router)
	return router, auth
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTokenHandler_IssueToken(t *testing.T) {
	router, auth := newTokenTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/token", IssueTokenRequest{
		UserID:      "user-1",
		DisplayName: "Ada Lovelace",
		Email:       "ada@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID       string `json:"user_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := auth.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", claims.DisplayName)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestTokenHandler_IssueToken_InvalidInput(t *testing.T) {
	router, _ := newTokenTestRouter(t)

	tests := []struct {
		name string
		req  IssueTokenRequest
	}{
		{name: "missing user id", req: IssueTokenRequest{DisplayName: "Ada"}},
		{name: "missing display name", req: IssueTokenRequest{UserID: "user-1"}},
		{name: "bad user id characters", req: IssueTokenRequest{UserID: "user 1!", DisplayName: "Ada"}},
		{name: "bad email", req: IssueTokenRequest{UserID: "user-1", DisplayName: "Ada", Email: "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/auth/token", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTokenHandler_RefreshToken(t *testing.T) {
	router, auth := newTokenTestRouter(t)

	refresh, err := auth.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	w := postJSON(t, router, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := auth.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", string(claims.UserID()))
}

func TestTokenHandler_RefreshToken_Invalid(t *testing.T) {
	router, _ := newTokenTestRouter(t)

	w := postJSON(t, router, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenHandler_RevokeToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := services.NewAuthService("test-secret", time.Hour, 24*time.Hour, newFakeRevocations())
	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop().Sugar()))
	NewTokenHandler(auth, time.Hour).SetupRoutes(router)

	token, err := auth.GenerateToken("user-1", "Ada", "")
	require.NoError(t, err)

	w := postJSON(t, router, "/api/v1/auth/revoke", RevokeTokenRequest{Token: token})
	require.Equal(t, http.StatusOK, w.Code)

	_, err = auth.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, services.ErrRevokedToken)
}
