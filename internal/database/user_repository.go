package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/studydeck/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := DB.Rebind(`
		SELECT id, username, notification_enabled, notification_hour, created_at, updated_at
		FROM users
		WHERE id = ?
	`)
	err := DB.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateIfAbsent registers a user on first contact. Safe to retry.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *models.User) error {
	query := DB.Rebind(`
		INSERT INTO users (id, username, notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO NOTHING
	`)
	_, err := DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.NotificationEnabled,
		user.NotificationHour,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUsersForNotification returns users who want a reminder at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := DB.Rebind(`
		SELECT id, username, notification_enabled, notification_hour, created_at, updated_at
		FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id
	`)
	err := DB.SelectContext(ctx, &users, query, true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
