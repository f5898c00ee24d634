package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studydeck/pkg/models"
)

// CardRepository handles database operations for cards
type CardRepository struct{}

// NewCardRepository creates a new repository instance
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

// GetByID returns a card by ID
func (r *CardRepository) GetByID(ctx context.Context, cardID int64) (*models.Card, error) {
	var card models.Card
	query := DB.Rebind(`
		SELECT id, topic_id, front, back, created_at, updated_at
		FROM cards
		WHERE id = ?
	`)
	err := DB.GetContext(ctx, &card, query, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// GetByTopic returns all cards in a topic, ordered by id
func (r *CardRepository) GetByTopic(ctx context.Context, topicID int64) ([]models.Card, error) {
	var cards []models.Card
	query := DB.Rebind(`
		SELECT id, topic_id, front, back, created_at, updated_at
		FROM cards
		WHERE topic_id = ?
		ORDER BY id
	`)
	err := DB.SelectContext(ctx, &cards, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards by topic: %w", err)
	}
	return cards, nil
}

// GetByIDs returns the cards whose ids are in the given set
func (r *CardRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := inQuery(`
		SELECT id, topic_id, front, back, created_at, updated_at
		FROM cards
		WHERE id IN (?)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	var cards []models.Card
	if err := DB.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get cards by ids: %w", err)
	}
	return cards, nil
}

// Create inserts a new card
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	id, err := insertReturningID(ctx, DB, `
		INSERT INTO cards (topic_id, front, back, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, card.TopicID, card.Front, card.Back)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	card.ID = id
	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()
	return nil
}

// Delete removes a card together with every collaborator's progress on it
func (r *CardRepository) Delete(ctx context.Context, cardID int64) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM progress WHERE card_id = ?"), cardID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete progress: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM cards WHERE id = ?"), cardID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("card %d: %w", cardID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
