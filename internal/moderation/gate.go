// Package moderation decides whether a user may send chat messages.
// Connection-level ban enforcement happens at handshake time; this gate is
// the per-send check that catches moderation applied mid-connection.
package moderation

import (
	"time"

	"marketplace-chat/internal/models"
)

// Denial reasons.
const (
	ReasonBanned = "banned"
	ReasonMuted  = "muted"
)

// CanSend reports whether the user may send right now, with a denial reason
// when not. Callers must pass freshly loaded user state: an administrator can
// mute or ban during a live connection, so cached session identity is only
// trustworthy for display metadata.
func CanSend(user models.User, now time.Time) (bool, string) {
	if user.IsBanned {
		return false, ReasonBanned
	}
	if user.Muted(now) {
		return false, ReasonMuted
	}
	return true, ""
}
