package ports

import (
	"context"
	"encoding/json"

	"syncboard/internal/core/domain"
)

// Notifier delivers server-originated payloads to every open connection
// in a user's personal room. Implemented by the websocket gateway.
type Notifier interface {
	NotifyUser(ctx context.Context, userID domain.UserID, payload json.RawMessage) (int, error)
}
