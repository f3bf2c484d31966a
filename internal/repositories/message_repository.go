package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"marketplace-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MaxMessageLength bounds stored message text. Longer input is truncated,
// not rejected.
const MaxMessageLength = 1000

// MessageRepository abstracts chat message persistence.
type MessageRepository interface {
	Append(ctx context.Context, room string, senderID string, senderName string, text string) (models.ChatMessage, error)
	History(ctx context.Context, room string, limit int) ([]models.ChatMessage, error)
	SoftDelete(ctx context.Context, messageID int) (models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message in a room, truncating text to MaxMessageLength.
func (r *MessageRepo) Append(ctx context.Context, room string, senderID string, senderName string, text string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages (room, sender_id, sender_name, text) VALUES ($1, $2, $3, $4)
        RETURNING id, room, sender_id, sender_name, text, is_deleted, created_at`,
		room, senderID, senderName, Truncate(text, MaxMessageLength)).
		Scan(&msg.ID, &msg.Room, &msg.SenderID, &msg.SenderName, &msg.Text, &msg.IsDeleted, &msg.CreatedAt)
	return msg, err
}

// History returns the most recent limit messages for a room, oldest first.
// Soft-deleted rows keep their position but come back with blanked text so
// clients can render a redaction.
func (r *MessageRepo) History(ctx context.Context, room string, limit int) ([]models.ChatMessage, error) {
	query := `SELECT id, room, sender_id, sender_name,
            CASE WHEN is_deleted THEN '' ELSE text END AS text,
            is_deleted, created_at
        FROM chat_messages
        WHERE room=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`
	var msgs []models.ChatMessage
	if err := r.db.SelectContext(ctx, &msgs, query, room, limit); err != nil {
		return nil, err
	}
	ReverseInPlace(msgs)
	return msgs, nil
}

// SoftDelete flags a message as deleted without removing the row.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `UPDATE chat_messages SET is_deleted = TRUE WHERE id=$1
        RETURNING id, room, sender_id, sender_name, text, is_deleted, created_at`, messageID).
		Scan(&msg.ID, &msg.Room, &msg.SenderID, &msg.SenderName, &msg.Text, &msg.IsDeleted, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// Truncate caps text at max characters, counting runes rather than bytes so
// multi-byte text is never cut mid-character.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// ReverseInPlace flips a newest-first query result into presentation order.
func ReverseInPlace(msgs []models.ChatMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
