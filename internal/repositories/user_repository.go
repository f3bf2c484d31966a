package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"marketplace-chat/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads identity and moderation state for chat users.
// The write side is only reachable through the admin surface; moderation
// checks must always go through GetUser rather than cached session state.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	SetBanned(ctx context.Context, id string, banned bool) (models.User, error)
	SetChatMutedUntil(ctx context.Context, id string, until *time.Time) (models.User, error)
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, role, is_banned, chat_muted_until FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetBanned updates the global ban flag.
func (r *UserRepo) SetBanned(ctx context.Context, id string, banned bool) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET is_banned=$2 WHERE id=$1
        RETURNING id, username, role, is_banned, chat_muted_until`, id, banned).
		Scan(&user.ID, &user.Username, &user.Role, &user.IsBanned, &user.ChatMutedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetChatMutedUntil updates the timed chat mute; nil clears it.
func (r *UserRepo) SetChatMutedUntil(ctx context.Context, id string, until *time.Time) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET chat_muted_until=$2 WHERE id=$1
        RETURNING id, username, role, is_banned, chat_muted_until`, id, until).
		Scan(&user.ID, &user.Username, &user.Role, &user.IsBanned, &user.ChatMutedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
