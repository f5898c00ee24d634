package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/studydeck/pkg/models"
)

// ConfigRepository handles per-(topic, user) study configuration
type ConfigRepository struct{}

// NewConfigRepository creates a new repository instance
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

// Get returns the config for a topic and user
func (r *ConfigRepository) Get(ctx context.Context, topicID, userID int64) (*models.Config, error) {
	var config models.Config
	query := DB.Rebind(`
		SELECT topic_id, user_id, archived, reviewing, recall_threshold, created_at, updated_at
		FROM configs
		WHERE topic_id = ? AND user_id = ?
	`)
	err := DB.GetContext(ctx, &config, query, topicID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config for topic %d user %d: %w", topicID, userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return &config, nil
}

// GetReviewingByUser returns the configs that make a topic eligible for
// scheduling: reviewing set and not archived.
func (r *ConfigRepository) GetReviewingByUser(ctx context.Context, userID int64) ([]models.Config, error) {
	var configs []models.Config
	query := DB.Rebind(`
		SELECT topic_id, user_id, archived, reviewing, recall_threshold, created_at, updated_at
		FROM configs
		WHERE user_id = ? AND reviewing = ? AND archived = ?
		ORDER BY topic_id
	`)
	err := DB.SelectContext(ctx, &configs, query, userID, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviewing configs: %w", err)
	}
	return configs, nil
}

// CreateIfAbsent inserts a config with the given values unless one already
// exists for the (topic, user) pair. Safe to retry.
func (r *ConfigRepository) CreateIfAbsent(ctx context.Context, config *models.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	query := DB.Rebind(`
		INSERT INTO configs (topic_id, user_id, archived, reviewing, recall_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (topic_id, user_id) DO NOTHING
	`)
	_, err := DB.ExecContext(ctx, query,
		config.TopicID,
		config.UserID,
		config.Archived,
		config.Reviewing,
		config.RecallThreshold,
	)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

// Update modifies an existing config
func (r *ConfigRepository) Update(ctx context.Context, config *models.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	query := DB.Rebind(`
		UPDATE configs
		SET archived = ?, reviewing = ?, recall_threshold = ?, updated_at = CURRENT_TIMESTAMP
		WHERE topic_id = ? AND user_id = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		config.Archived,
		config.Reviewing,
		config.RecallThreshold,
		config.TopicID,
		config.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("config for topic %d user %d: %w", config.TopicID, config.UserID, ErrNotFound)
	}
	return nil
}

// Delete removes a config. Deleting an absent config is not an error so
// collaborator removal stays retriable.
func (r *ConfigRepository) Delete(ctx context.Context, topicID, userID int64) error {
	query := DB.Rebind("DELETE FROM configs WHERE topic_id = ? AND user_id = ?")
	if _, err := DB.ExecContext(ctx, query, topicID, userID); err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	return nil
}
