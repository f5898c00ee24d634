package srs

import (
	"time"

	"github.com/example/studydeck/pkg/models"
)

// estAnswerWeight is the EWMA weight kept from the previous estimate when
// a new answer duration is observed.
const estAnswerWeight = 0.7

// NewProgress returns the initial study state for a card entering a
// user's effective card set: level 1, due immediately.
func NewProgress(userID, cardID int64, now time.Time) models.Progress {
	return models.Progress{
		UserID:  userID,
		CardID:  cardID,
		Level:   1,
		DueDate: now,
	}
}

// Reset puts a progress record back to level 1 with the due date the
// projector assigns to a fresh card.
func Reset(progress *models.Progress, projector Projector, now time.Time) {
	progress.Level = 1
	progress.DueDate = projector.Project(now, 1)
}

// Advance applies a study answer to a progress record. A correct answer
// moves the card one level up and projects the next due date from now; an
// incorrect answer sends it back to level 1. The projector must be the
// same one the scheduler simulates with, otherwise future previews drift
// from actual outcomes.
func Advance(progress *models.Progress, projector Projector, correct bool, answerTime time.Duration, now time.Time) {
	if correct {
		progress.Level++
	} else {
		progress.Level = 1
	}
	progress.DueDate = projector.Project(now, progress.Level)

	observed := answerTime.Seconds()
	if observed < 0 {
		observed = 0
	}
	if progress.EstAnswerTime == 0 {
		progress.EstAnswerTime = observed
	} else {
		progress.EstAnswerTime = estAnswerWeight*progress.EstAnswerTime + (1-estAnswerWeight)*observed
	}
}
