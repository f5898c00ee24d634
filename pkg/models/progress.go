package models

import "time"

// Progress tracks a user's study state for a single card. Every user
// actively collaborating on a topic has exactly one Progress row per
// card in that topic; progress is never shared between users.
type Progress struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	CardID        int64     `json:"card_id" db:"card_id"`
	Level         int       `json:"level" db:"level"`                     // review level, starts at 1
	DueDate       time.Time `json:"due_date" db:"due_date"`               // next review moment
	EstAnswerTime float64   `json:"est_answer_time" db:"est_answer_time"` // seconds, non-negative
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
