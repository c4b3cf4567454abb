package gateway

import (
	"testing"

	"syncboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestConnection_StateTransitions(t *testing.T) {
	conn := newConnection("conn-1", domain.Identity{ID: "user-1"}, domain.ChannelGeneral, domain.PersonalRoom("user-1"), nil, 0)
	assert.Equal(t, domain.StateConnecting, conn.State())

	assert.True(t, conn.markJoined())
	assert.Equal(t, domain.StateJoined, conn.State())

	// Joining twice is not a valid transition.
	assert.False(t, conn.markJoined())

	assert.Equal(t, domain.StateJoined, conn.markLeft())
	assert.Equal(t, domain.StateLeft, conn.State())

	// Left is terminal and repeat leaves report it.
	assert.Equal(t, domain.StateLeft, conn.markLeft())
	assert.False(t, conn.markJoined())
}

func TestConnection_DisconnectBeforeJoin(t *testing.T) {
	conn := newConnection("conn-1", domain.Identity{ID: "user-1"}, domain.ChannelRetro, domain.SessionRoom("s-1"), nil, 0)

	assert.Equal(t, domain.StateConnecting, conn.markLeft())
	assert.False(t, conn.markJoined())
}

func TestConnection_WriteAfterLeft(t *testing.T) {
	conn := newConnection("conn-1", domain.Identity{ID: "user-1"}, domain.ChannelGeneral, domain.PersonalRoom("user-1"), nil, 0)
	conn.markLeft()

	err := conn.WriteEnvelope(Envelope{Type: EventError})
	assert.ErrorIs(t, err, domain.ErrConnectionClosed)
}
