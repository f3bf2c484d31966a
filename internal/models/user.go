package models

import "time"

// User is owned by the marketplace auth/CRUD subsystem. The chat service
// reads it for identity and moderation state; only the admin surface writes
// the moderation fields.
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Role           string     `db:"role" json:"role"`
	IsBanned       bool       `db:"is_banned" json:"isBanned"`
	ChatMutedUntil *time.Time `db:"chat_muted_until" json:"chatMutedUntil,omitempty"`
}

// Muted reports whether the user is chat-muted at the given instant.
func (u User) Muted(now time.Time) bool {
	return u.ChatMutedUntil != nil && u.ChatMutedUntil.After(now)
}
