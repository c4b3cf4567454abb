package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotJoined          = errors.New("connection not joined to room")
	ErrAlreadyJoined      = errors.New("connection already joined to room")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionClosed   = errors.New("connection closed")
)
