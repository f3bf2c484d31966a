package models

import "time"

// ChatMessage is an immutable chat message. Room is either "global" or a
// deterministic DM pair identifier ("dm:<min>:<max>"). SenderName is
// denormalized at write time and never updated retroactively.
type ChatMessage struct {
	ID         int       `db:"id" json:"id"`
	Room       string    `db:"room" json:"room"`
	SenderID   string    `db:"sender_id" json:"senderId"`
	SenderName string    `db:"sender_name" json:"senderName"`
	Text       string    `db:"text" json:"text"`
	IsDeleted  bool      `db:"is_deleted" json:"isDeleted"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
