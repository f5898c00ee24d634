package models

import "time"

// Card represents a front/back study item belonging to one topic
type Card struct {
	ID        int64     `json:"id" db:"id"`
	TopicID   int64     `json:"topic_id" db:"topic_id"`
	Front     string    `json:"front" db:"front"`
	Back      string    `json:"back" db:"back"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
