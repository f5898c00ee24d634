package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/srs"
	"github.com/example/studydeck/pkg/models"
)

// Manager owns the collaboration lifecycle: sharing a topic as an
// independent copy, attaching and detaching collaborators, and bulk
// progress resets. Every multi-record mutation runs in one transaction
// and each step is an idempotent upsert or delete, so a retried call
// converges to the same end state.
type Manager struct {
	projector srs.Projector
	topics    *database.TopicRepository
	cards     *database.CardRepository
	subjects  *database.SubjectRepository
	progress  *database.ProgressRepository
}

// NewManager creates a collaboration manager using the given projector
// for progress resets.
func NewManager(projector srs.Projector) *Manager {
	return &Manager{
		projector: projector,
		topics:    database.NewTopicRepository(),
		cards:     database.NewCardRepository(),
		subjects:  database.NewSubjectRepository(),
		progress:  database.NewProgressRepository(),
	}
}

// Share gives the recipient a brand-new topic with the same title and a
// deep copy of every card, plus a default config and level-1 progress on
// each copy. The source topic and its collaborators are untouched. The
// copy is optionally attached to one of the recipient's subjects.
func (m *Manager) Share(ctx context.Context, topicID, recipientID int64, subjectID *int64) (*models.Topic, error) {
	source, err := m.topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if subjectID != nil {
		subject, err := m.subjects.GetByID(ctx, *subjectID)
		if err != nil {
			return nil, err
		}
		// The copy can only hang off one of the recipient's own subjects.
		if subject.UserID != recipientID {
			return nil, fmt.Errorf("subject %d for user %d: %w", *subjectID, recipientID, database.ErrNotFound)
		}
	}
	sourceCards, err := m.cards.GetByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	copyID, err := database.CreateTopicTx(ctx, tx, recipientID, subjectID, source.Title)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := database.CreateConfigIfAbsentTx(ctx, tx, copyID, recipientID); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	for _, card := range sourceCards {
		cardID, err := database.CreateCardTx(ctx, tx, copyID, card.Front, card.Back)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := database.CreateProgressIfAbsentTx(ctx, tx, recipientID, cardID, now); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Topic{
		ID:        copyID,
		UserID:    recipientID,
		SubjectID: subjectID,
		Title:     source.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddCollaborator lets the recipient study the topic's existing cards
// with independent progress. Idempotent: a second call changes nothing,
// and a retry after partial failure fills in only what is missing.
func (m *Manager) AddCollaborator(ctx context.Context, topicID, recipientID int64) error {
	if _, err := m.topics.GetByID(ctx, topicID); err != nil {
		return err
	}
	topicCards, err := m.cards.GetByTopic(ctx, topicID)
	if err != nil {
		return err
	}

	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := database.CreateConfigIfAbsentTx(ctx, tx, topicID, recipientID); err != nil {
		tx.Rollback()
		return err
	}
	now := time.Now().UTC()
	for _, card := range topicCards {
		if err := database.CreateProgressIfAbsentTx(ctx, tx, recipientID, card.ID, now); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveCollaborator deletes the recipient's config and progress for the
// topic. Cards, the topic itself and other collaborators keep their
// state. Removing an absent collaborator is a no-op.
func (m *Manager) RemoveCollaborator(ctx context.Context, topicID, recipientID int64) error {
	if _, err := m.topics.GetByID(ctx, topicID); err != nil {
		return err
	}

	tx, err := database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM progress
		WHERE user_id = ? AND card_id IN (SELECT id FROM cards WHERE topic_id = ?)
	`), recipientID, topicID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete progress: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM configs WHERE topic_id = ? AND user_id = ?"), topicID, recipientID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ResetAll restarts the user's progress on every card of the topic:
// level 1, due date projected for a fresh card.
func (m *Manager) ResetAll(ctx context.Context, topicID, userID int64) error {
	if _, err := m.topics.GetByID(ctx, topicID); err != nil {
		return err
	}
	due := m.projector.Project(time.Now().UTC(), 1)
	return m.progress.ResetForTopic(ctx, topicID, userID, 1, due)
}
