package models

import (
	"errors"
	"time"
)

// ErrEmptyTitle is returned when a topic is written without a title.
var ErrEmptyTitle = errors.New("topic title must not be empty")

// Topic represents a named collection of cards owned by a user,
// optionally grouped under a subject
type Topic struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	SubjectID *int64    `json:"subject_id" db:"subject_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the topic invariants before it is persisted
func (t *Topic) Validate() error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}
