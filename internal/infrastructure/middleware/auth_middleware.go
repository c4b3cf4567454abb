package middleware

import (
	"net/http"
	"strings"

	"syncboard/internal/core/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID      = "user_id"
	ContextKeyDisplayName = "display_name"
	ContextKeyClaims      = "claims"
)

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		// Store identity in context
		c.Set(ContextKeyUserID, claims.UserID())
		c.Set(ContextKeyDisplayName, claims.DisplayName)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}
