package study

import (
	"context"
	"time"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/srs"
	"github.com/example/studydeck/pkg/models"
)

// Service records study events against a user's progress
type Service struct {
	projector srs.Projector
	progress  *database.ProgressRepository
}

// NewService creates a study service. The projector must be the same one
// the scheduler previews with.
func NewService(projector srs.Projector) *Service {
	return &Service{
		projector: projector,
		progress:  database.NewProgressRepository(),
	}
}

// RecordAnswer applies one study answer: a correct answer advances the
// card one level, an incorrect one restarts it at level 1. The answer
// duration feeds the card's estimated answer time. Returns the updated
// progress.
func (s *Service) RecordAnswer(ctx context.Context, userID, cardID int64, correct bool, answerTime time.Duration) (*models.Progress, error) {
	progress, err := s.progress.GetByUserAndCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	srs.Advance(progress, s.projector, correct, answerTime, time.Now().UTC())

	if err := s.progress.Update(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Reset restarts the user's progress on a single card
func (s *Service) Reset(ctx context.Context, userID, cardID int64) (*models.Progress, error) {
	progress, err := s.progress.GetByUserAndCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	srs.Reset(progress, s.projector, time.Now().UTC())

	if err := s.progress.Update(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}
