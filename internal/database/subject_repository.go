package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studydeck/pkg/models"
)

// SubjectRepository handles database operations for subjects
type SubjectRepository struct{}

// NewSubjectRepository creates a new repository instance
func NewSubjectRepository() *SubjectRepository {
	return &SubjectRepository{}
}

// GetByID returns a subject by ID
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	query := DB.Rebind(`
		SELECT id, user_id, name, archived, created_at, updated_at
		FROM subjects
		WHERE id = ?
	`)
	err := DB.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subject %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

// Create inserts a new subject
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	id, err := insertReturningID(ctx, DB, `
		INSERT INTO subjects (user_id, name, archived, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, subject.UserID, subject.Name, subject.Archived)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	subject.ID = id
	subject.CreatedAt = time.Now()
	subject.UpdatedAt = time.Now()
	return nil
}
