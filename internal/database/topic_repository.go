package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studydeck/pkg/models"
)

// TopicRepository handles database operations for topics
type TopicRepository struct{}

// NewTopicRepository creates a new repository instance
func NewTopicRepository() *TopicRepository {
	return &TopicRepository{}
}

// GetByID returns a topic by ID
func (r *TopicRepository) GetByID(ctx context.Context, topicID int64) (*models.Topic, error) {
	var topic models.Topic
	query := DB.Rebind(`
		SELECT id, user_id, subject_id, title, created_at, updated_at
		FROM topics
		WHERE id = ?
	`)
	err := DB.GetContext(ctx, &topic, query, topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %d: %w", topicID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

// GetAllByUserID returns all topics owned by a user
func (r *TopicRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.Topic, error) {
	var topics []models.Topic
	query := DB.Rebind(`
		SELECT id, user_id, subject_id, title, created_at, updated_at
		FROM topics
		WHERE user_id = ?
		ORDER BY id
	`)
	err := DB.SelectContext(ctx, &topics, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// GetByIDs returns the topics whose ids are in the given set, ordered by id
func (r *TopicRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Topic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := inQuery(`
		SELECT id, user_id, subject_id, title, created_at, updated_at
		FROM topics
		WHERE id IN (?)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	var topics []models.Topic
	if err := DB.SelectContext(ctx, &topics, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get topics by ids: %w", err)
	}
	return topics, nil
}

// GetByTitle returns a user's topic by exact title
func (r *TopicRepository) GetByTitle(ctx context.Context, userID int64, title string) (*models.Topic, error) {
	var topic models.Topic
	query := DB.Rebind(`
		SELECT id, user_id, subject_id, title, created_at, updated_at
		FROM topics
		WHERE user_id = ? AND title = ?
	`)
	err := DB.GetContext(ctx, &topic, query, userID, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %q for user %d: %w", title, userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by title: %w", err)
	}
	return &topic, nil
}

// Create creates a new topic
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	if err := topic.Validate(); err != nil {
		return err
	}

	id, err := insertReturningID(ctx, DB, `
		INSERT INTO topics (user_id, subject_id, title, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, topic.UserID, topic.SubjectID, topic.Title)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	topic.ID = id
	topic.CreatedAt = time.Now()
	topic.UpdatedAt = time.Now()
	return nil
}

// Update updates an existing topic
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	if err := topic.Validate(); err != nil {
		return err
	}

	query := DB.Rebind(`
		UPDATE topics
		SET title = ?, subject_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`)
	result, err := DB.ExecContext(ctx, query, topic.Title, topic.SubjectID, topic.ID, topic.UserID)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("topic %d for user %d: %w", topic.ID, topic.UserID, ErrNotFound)
	}
	return nil
}

// Delete removes a topic and cascades to its cards, configs and every
// collaborator's progress, in one transaction.
func (r *TopicRepository) Delete(ctx context.Context, topicID int64) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM progress
		WHERE card_id IN (SELECT id FROM cards WHERE topic_id = ?)
	`), topicID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete progress: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM configs WHERE topic_id = ?"), topicID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete configs: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM cards WHERE topic_id = ?"), topicID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete cards: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM topics WHERE id = ?"), topicID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("topic %d: %w", topicID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
