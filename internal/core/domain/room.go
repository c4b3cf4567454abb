package domain

import (
	"fmt"
	"time"
)

// RoomKey names a broadcast scope. Two kinds exist: a personal
// notification room per user and a retrospective session room per board.
type RoomKey string

// PersonalRoom returns the room key that targets all open connections
// of a single user (a user may have several tabs open at once).
func PersonalRoom(userID UserID) RoomKey {
	return RoomKey(fmt.Sprintf("user:%s", userID))
}

// SessionRoom returns the room key for a retrospective board session.
func SessionRoom(sessionID string) RoomKey {
	return RoomKey(fmt.Sprintf("retro:%s", sessionID))
}

// Member is one presence entry within a room: the identity plus the
// display color assigned at join time.
type Member struct {
	Identity Identity  `json:"identity"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`
}
