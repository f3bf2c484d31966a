package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"marketplace-chat/internal/models"
)

func TestCanSendCleanUser(t *testing.T) {
	ok, reason := CanSend(models.User{ID: "u1"}, time.Now())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCanSendBannedUser(t *testing.T) {
	ok, reason := CanSend(models.User{ID: "u1", IsBanned: true}, time.Now())
	assert.False(t, ok)
	assert.Equal(t, ReasonBanned, reason)
}

func TestCanSendMutedUser(t *testing.T) {
	until := time.Now().Add(10 * time.Minute)
	ok, reason := CanSend(models.User{ID: "u1", ChatMutedUntil: &until}, time.Now())
	assert.False(t, ok)
	assert.Equal(t, ReasonMuted, reason)
}

func TestCanSendExpiredMute(t *testing.T) {
	until := time.Now().Add(-time.Minute)
	ok, reason := CanSend(models.User{ID: "u1", ChatMutedUntil: &until}, time.Now())
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCanSendMuteBoundaryIsExclusive(t *testing.T) {
	now := time.Now()
	until := now
	ok, _ := CanSend(models.User{ID: "u1", ChatMutedUntil: &until}, now)
	assert.True(t, ok, "mute expiring exactly now no longer blocks")
}
