package http

import (
	"encoding/json"
	"net/http"

	"syncboard/internal/core/domain"
	"syncboard/internal/core/ports"
	"syncboard/pkg/errors"
	"syncboard/pkg/validation"

	"github.com/gin-gonic/gin"
)

// NotificationHandler lets the main application push a payload to every
// open connection of a user through their personal room.
type NotificationHandler struct {
	notifier ports.Notifier
}

func NewNotificationHandler(notifier ports.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

func (h *NotificationHandler) SetupRoutes(group *gin.RouterGroup) {
	group.POST("/notifications/:user_id", h.Notify)
}

func (h *NotificationHandler) Notify(c *gin.Context) {
	userID := c.Param("user_id")
	if err := validation.ValidateUserID(userID); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.Error(errors.NewInvalidInputError("notification payload is required"))
		return
	}
	if !json.Valid(body) {
		c.Error(errors.NewInvalidInputError("notification payload must be valid JSON"))
		return
	}

	delivered, err := h.notifier.NotifyUser(c.Request.Context(), domain.UserID(userID), json.RawMessage(body))
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeInternal, "failed to deliver notification", http.StatusInternalServerError))
		return
	}

	// Zero deliveries is not an error; the user may simply be offline.
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"delivered": delivered,
	})
}
