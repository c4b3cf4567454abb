package http

import (
	"net/http"
	"strings"
	"time"

	"syncboard/internal/core/domain"
	"syncboard/internal/core/services"
	"syncboard/pkg/errors"
	"syncboard/pkg/validation"

	"github.com/gin-gonic/gin"
)

// TokenHandler issues and revokes the bearer credentials the gateway
// verifies on every handshake. User identity is taken on trust from the
// caller; credential checks belong to the main application, not here.
type TokenHandler struct {
	authService    services.AuthService
	accessTokenTTL time.Duration
}

func NewTokenHandler(authService services.AuthService, accessTokenTTL time.Duration) *TokenHandler {
	return &TokenHandler{
		authService:    authService,
		accessTokenTTL: accessTokenTTL,
	}
}

func (h *TokenHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/token", h.IssueToken)
		api.POST("/refresh", h.RefreshToken)
		api.POST("/revoke", h.RevokeToken)
	}
}

type IssueTokenRequest struct {
	UserID      string `json:"user_id" binding:"required,max=100"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"omitempty,max=254"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,max=2048"`
}

type RevokeTokenRequest struct {
	Token string `json:"token" binding:"required,max=2048"`
}

func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := validation.ValidateUserID(req.UserID); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if req.Email != "" {
		if err := validation.ValidateEmail(req.Email); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
	}

	userID := domain.UserID(req.UserID)

	accessToken, err := h.authService.GenerateToken(userID, req.DisplayName, req.Email)
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to generate token", http.StatusInternalServerError))
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken(userID)
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to generate refresh token", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(h.accessTokenTTL / time.Second),
	})
}

func (h *TokenHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	claims, err := h.authService.ValidateToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.Error(errors.NewInvalidTokenError())
		return
	}

	// Refresh tokens carry no display metadata; reissue with what the
	// claims hold so a refreshed access token stays self-contained.
	accessToken, err := h.authService.GenerateToken(claims.UserID(), claims.DisplayName, claims.Email)
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to generate token", http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"expires_in":   int(h.accessTokenTTL / time.Second),
	})
}

func (h *TokenHandler) RevokeToken(c *gin.Context) {
	var req RevokeTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), req.Token); err != nil {
		c.Error(errors.NewInvalidTokenError())
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
