package domain

type UserID string

// Identity is the authenticated principal attached to a connection.
// It is resolved from a verified token exactly once, at handshake,
// and never mutated afterwards.
type Identity struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
