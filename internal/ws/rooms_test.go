package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDMRoomIsCommutative(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"zed", "amy"},
		{"64f1a2", "000abc"},
		{"same", "same"},
	}
	for _, pair := range pairs {
		assert.Equal(t, DMRoom(pair[0], pair[1]), DMRoom(pair[1], pair[0]))
	}
}

func TestDMRoomOrdersLexicographically(t *testing.T) {
	assert.Equal(t, "dm:u1:u2", DMRoom("u2", "u1"))
	assert.Equal(t, "dm:u1:u2", DMRoom("u1", "u2"))
}

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1"))
}

func TestRoomKind(t *testing.T) {
	assert.Equal(t, "global", RoomKind(GlobalRoom))
	assert.Equal(t, "dm", RoomKind(DMRoom("u1", "u2")))
}
