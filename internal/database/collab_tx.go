package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studydeck/pkg/models"
)

// Transaction-scoped writes used by the collaboration manager, so that a
// config and its matching progress rows land or fail together.

// CreateTopicTx inserts a topic inside an open transaction and returns
// its id.
func CreateTopicTx(ctx context.Context, tx *sqlx.Tx, userID int64, subjectID *int64, title string) (int64, error) {
	topic := models.Topic{Title: title}
	if err := topic.Validate(); err != nil {
		return 0, err
	}
	id, err := insertReturningID(ctx, tx, `
		INSERT INTO topics (user_id, subject_id, title, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, userID, subjectID, title)
	if err != nil {
		return 0, fmt.Errorf("failed to create topic: %w", err)
	}
	return id, nil
}

// CreateCardTx inserts a card inside an open transaction and returns its id
func CreateCardTx(ctx context.Context, tx *sqlx.Tx, topicID int64, front, back string) (int64, error) {
	id, err := insertReturningID(ctx, tx, `
		INSERT INTO cards (topic_id, front, back, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, topicID, front, back)
	if err != nil {
		return 0, fmt.Errorf("failed to create card: %w", err)
	}
	return id, nil
}

// CreateConfigIfAbsentTx inserts a default config for the (topic, user)
// pair unless one exists. Safe to retry.
func CreateConfigIfAbsentTx(ctx context.Context, tx *sqlx.Tx, topicID, userID int64) error {
	query := tx.Rebind(`
		INSERT INTO configs (topic_id, user_id, archived, reviewing, recall_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (topic_id, user_id) DO NOTHING
	`)
	_, err := tx.ExecContext(ctx, query, topicID, userID, false, false, models.DefaultRecallThreshold)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

// CreateProgressIfAbsentTx inserts a level-1 progress row for the
// (user, card) pair unless one exists. Safe to retry.
func CreateProgressIfAbsentTx(ctx context.Context, tx *sqlx.Tx, userID, cardID int64, due time.Time) error {
	query := tx.Rebind(`
		INSERT INTO progress (user_id, card_id, level, due_date, est_answer_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, card_id) DO NOTHING
	`)
	_, err := tx.ExecContext(ctx, query, userID, cardID, 1, due, 0.0)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}
