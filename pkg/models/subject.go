package models

import "time"

// Subject groups topics. Archiving a subject archives its topics; that
// propagation is owned by subject management, the scheduler only reads
// the per-topic archived flag.
type Subject struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Archived  bool      `json:"archived" db:"archived"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
