package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studydeck/pkg/models"
)

// ProgressRepository handles database operations for per-card study progress
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// DueCard is a progress row joined with the owning topic of its card, as
// consumed by the study scheduler.
type DueCard struct {
	models.Progress
	TopicID int64 `db:"topic_id"`
}

const dueCardColumns = `
	p.id, p.user_id, p.card_id, p.level, p.due_date, p.est_answer_time,
	p.created_at, p.updated_at, c.topic_id
`

// GetByUserAndCard returns progress for a specific user and card
func (r *ProgressRepository) GetByUserAndCard(ctx context.Context, userID, cardID int64) (*models.Progress, error) {
	var progress models.Progress
	query := DB.Rebind(`
		SELECT id, user_id, card_id, level, due_date, est_answer_time, created_at, updated_at
		FROM progress
		WHERE user_id = ? AND card_id = ?
	`)
	err := DB.GetContext(ctx, &progress, query, userID, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress for user %d card %d: %w", userID, cardID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

// DueOnOrBefore returns the user's progress rows with due_date <= cutoff,
// joined with each card's topic. Closed upper bound: a card due exactly at
// the cutoff is included.
func (r *ProgressRepository) DueOnOrBefore(ctx context.Context, userID int64, cutoff time.Time) ([]DueCard, error) {
	var due []DueCard
	query := DB.Rebind(`
		SELECT ` + dueCardColumns + `
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.due_date <= ?
		ORDER BY p.due_date, p.card_id
	`)
	if err := DB.SelectContext(ctx, &due, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return due, nil
}

// DueOnOrBeforeReviewing is DueOnOrBefore restricted to cards whose
// topic the user is actively reviewing (reviewing set, not archived).
func (r *ProgressRepository) DueOnOrBeforeReviewing(ctx context.Context, userID int64, cutoff time.Time) ([]DueCard, error) {
	var due []DueCard
	query := DB.Rebind(`
		SELECT ` + dueCardColumns + `
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		JOIN configs cf ON cf.topic_id = c.topic_id AND cf.user_id = p.user_id
		WHERE p.user_id = ? AND p.due_date <= ? AND cf.reviewing = ? AND cf.archived = ?
		ORDER BY p.due_date, p.card_id
	`)
	if err := DB.SelectContext(ctx, &due, query, userID, cutoff, true, false); err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return due, nil
}

// DueBefore returns the user's progress rows with due_date strictly
// before the cutoff.
func (r *ProgressRepository) DueBefore(ctx context.Context, userID int64, cutoff time.Time) ([]DueCard, error) {
	var due []DueCard
	query := DB.Rebind(`
		SELECT ` + dueCardColumns + `
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.due_date < ?
		ORDER BY p.due_date, p.card_id
	`)
	if err := DB.SelectContext(ctx, &due, query, userID, cutoff); err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return due, nil
}

// DueWithin returns the user's progress rows with from <= due_date < to.
func (r *ProgressRepository) DueWithin(ctx context.Context, userID int64, from, to time.Time) ([]DueCard, error) {
	var due []DueCard
	query := DB.Rebind(`
		SELECT ` + dueCardColumns + `
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND p.due_date >= ? AND p.due_date < ?
		ORDER BY p.due_date, p.card_id
	`)
	if err := DB.SelectContext(ctx, &due, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return due, nil
}

// CreateIfAbsent inserts a progress row unless the (user, card) pair
// already has one. Safe to retry.
func (r *ProgressRepository) CreateIfAbsent(ctx context.Context, progress *models.Progress) error {
	query := DB.Rebind(`
		INSERT INTO progress (user_id, card_id, level, due_date, est_answer_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, card_id) DO NOTHING
	`)
	_, err := DB.ExecContext(ctx, query,
		progress.UserID,
		progress.CardID,
		progress.Level,
		progress.DueDate,
		progress.EstAnswerTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}

// Update modifies the study state of an existing progress row
func (r *ProgressRepository) Update(ctx context.Context, progress *models.Progress) error {
	query := DB.Rebind(`
		UPDATE progress
		SET level = ?, due_date = ?, est_answer_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		progress.Level,
		progress.DueDate,
		progress.EstAnswerTime,
		progress.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("progress %d: %w", progress.ID, ErrNotFound)
	}
	return nil
}

// ResetForTopic puts every progress row of the user within the topic back
// to the given level and due date in a single statement.
func (r *ProgressRepository) ResetForTopic(ctx context.Context, topicID, userID int64, level int, due time.Time) error {
	query := DB.Rebind(`
		UPDATE progress
		SET level = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND card_id IN (SELECT id FROM cards WHERE topic_id = ?)
	`)
	if _, err := DB.ExecContext(ctx, query, level, due, userID, topicID); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

// CountForTopic reports how many progress rows the user has within a topic
func (r *ProgressRepository) CountForTopic(ctx context.Context, topicID, userID int64) (int, error) {
	var count int
	query := DB.Rebind(`
		SELECT COUNT(*)
		FROM progress p
		JOIN cards c ON c.id = p.card_id
		WHERE p.user_id = ? AND c.topic_id = ?
	`)
	if err := DB.GetContext(ctx, &count, query, userID, topicID); err != nil {
		return 0, fmt.Errorf("failed to count progress: %w", err)
	}
	return count, nil
}

// Stats returns aggregate study numbers for a user
func (r *ProgressRepository) Stats(ctx context.Context, userID int64) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	query := DB.Rebind("SELECT COUNT(*) FROM progress WHERE user_id = ?")
	if err := DB.GetContext(ctx, &total, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count tracked cards: %w", err)
	}
	stats["tracked_cards"] = total

	var dueNow int
	query = DB.Rebind("SELECT COUNT(*) FROM progress WHERE user_id = ? AND due_date <= ?")
	if err := DB.GetContext(ctx, &dueNow, query, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to count due cards: %w", err)
	}
	stats["due_now"] = dueNow

	var maxLevel sql.NullInt64
	query = DB.Rebind("SELECT MAX(level) FROM progress WHERE user_id = ?")
	if err := DB.GetContext(ctx, &maxLevel, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get max level: %w", err)
	}
	stats["max_level"] = int(maxLevel.Int64)

	var atMaxLevel int
	if maxLevel.Valid {
		query = DB.Rebind("SELECT COUNT(*) FROM progress WHERE user_id = ? AND level = ?")
		if err := DB.GetContext(ctx, &atMaxLevel, query, userID, maxLevel.Int64); err != nil {
			return nil, fmt.Errorf("failed to count cards at max level: %w", err)
		}
	}
	stats["max_level_cards"] = atMaxLevel

	return stats, nil
}
