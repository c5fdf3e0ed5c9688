package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/legendas/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a single user
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := DB.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail returns the user with the given email, or nil when none exists
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, is_admin, telegram_chat_id)
		VALUES ($1, $2, $3, $4)
	`
	if IsPostgres() {
		return DB.QueryRowContext(ctx, query+" RETURNING id, created_at, updated_at",
			user.Email, user.PasswordHash, user.IsAdmin, user.TelegramChatID,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	}
	result, err := DB.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.IsAdmin, user.TelegramChatID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id
	return DB.QueryRowContext(ctx, "SELECT created_at, updated_at FROM users WHERE id = $1",
		user.ID).Scan(&user.CreatedAt, &user.UpdatedAt)
}

// SetTelegramChatID links or unlinks a user's Telegram chat
func (r *UserRepository) SetTelegramChatID(ctx context.Context, userID, chatID int64) error {
	_, err := DB.ExecContext(ctx,
		"UPDATE users SET telegram_chat_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to set telegram chat id: %w", err)
	}
	return nil
}

// GetWithTelegram returns users that linked a Telegram chat
func (r *UserRepository) GetWithTelegram(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := DB.SelectContext(ctx, &users, "SELECT * FROM users WHERE telegram_chat_id != 0"); err != nil {
		return nil, fmt.Errorf("failed to get telegram users: %w", err)
	}
	return users, nil
}

// CountDueCards returns how many of the user's cards are due at the given
// time. Used by the reminder job. The time is bound as a parameter so the
// driver formats it the same way it formatted the stored due values.
func (r *UserRepository) CountDueCards(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int
	err := DB.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM card_studies WHERE user_id = $1 AND due <= $2",
		userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return count, nil
}
