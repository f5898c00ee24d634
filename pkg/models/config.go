package models

import (
	"errors"
	"time"
)

// ErrInvalidRecallThreshold is returned when a config is written with a
// recall threshold outside (0, 1].
var ErrInvalidRecallThreshold = errors.New("recall threshold must be in (0, 1]")

// DefaultRecallThreshold is applied when a config is created without an
// explicit threshold.
const DefaultRecallThreshold = 0.8

// Config holds per-user, per-topic study settings. A topic only
// participates in scheduling for a user when Reviewing is set and
// Archived is not.
type Config struct {
	TopicID         int64     `json:"topic_id" db:"topic_id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	Archived        bool      `json:"archived" db:"archived"`
	Reviewing       bool      `json:"reviewing" db:"reviewing"`
	RecallThreshold float64   `json:"recall_threshold" db:"recall_threshold"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the config invariants before it is persisted
func (c *Config) Validate() error {
	if c.RecallThreshold <= 0 || c.RecallThreshold > 1 {
		return ErrInvalidRecallThreshold
	}
	return nil
}
