package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studydeck/internal/database"
	"github.com/example/studydeck/internal/srs"
	"github.com/example/studydeck/pkg/models"
)

// maxProjectionSteps bounds the forward simulation as a second line of
// defense behind the per-step monotonicity check.
const maxProjectionSteps = 1024

// Scheduler answers "what is due for this user on this date". It is
// read-only and safe for concurrent use.
type Scheduler struct {
	projector srs.Projector
	topics    *database.TopicRepository
	configs   *database.ConfigRepository
	progress  *database.ProgressRepository
}

// New creates a scheduler using the given projector. The projector must
// be the same one that advances progress on study answers.
func New(projector srs.Projector) *Scheduler {
	return &Scheduler{
		projector: projector,
		topics:    database.NewTopicRepository(),
		configs:   database.NewConfigRepository(),
		progress:  database.NewProgressRepository(),
	}
}

// TopicReview is one row of a review plan: a topic, how many of its cards
// are due, and roughly how long they will take to answer.
type TopicReview struct {
	Topic      models.Topic `json:"topic"`
	CardsCount int          `json:"cards_count"`
	ApproxTime float64      `json:"approx_time"` // seconds
}

// TopicsDue computes the per-topic review plan for a user on a target
// date. Past or current dates list everything overdue through the end of
// that day; future dates preview the cards that will land on that
// calendar day, including cards that are due earlier and would reach it
// through repeated successful reviews. Results are ordered by topic id.
func (s *Scheduler) TopicsDue(ctx context.Context, userID int64, date time.Time) ([]TopicReview, error) {
	configs, err := s.configs.GetReviewingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, nil
	}
	eligible := make(map[int64]bool, len(configs))
	for _, c := range configs {
		eligible[c.TopicID] = true
	}

	target := dayStart(date)
	nextDay := target.AddDate(0, 0, 1)
	today := dayStart(time.Now())

	var candidates []database.DueCard
	if !target.After(today) {
		// Catch-up: everything overdue plus everything due that day.
		candidates, err = s.progress.DueBefore(ctx, userID, nextDay)
		if err != nil {
			return nil, err
		}
	} else {
		candidates, err = s.futureCandidates(ctx, userID, target, nextDay)
		if err != nil {
			return nil, err
		}
	}

	// Intersect candidates with eligible topics.
	type bucket struct {
		count int
		time  float64
	}
	buckets := make(map[int64]*bucket)
	for _, dc := range candidates {
		if !eligible[dc.TopicID] {
			continue
		}
		b := buckets[dc.TopicID]
		if b == nil {
			b = &bucket{}
			buckets[dc.TopicID] = b
		}
		b.count++
		b.time += dc.EstAnswerTime
	}
	if len(buckets) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	topics, err := s.topics.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	reviews := make([]TopicReview, 0, len(topics))
	for _, topic := range topics {
		b := buckets[topic.ID]
		reviews = append(reviews, TopicReview{
			Topic:      topic,
			CardsCount: b.count,
			ApproxTime: b.time,
		})
	}
	return reviews, nil
}

// futureCandidates gathers cards for a preview date: those due within the
// target day plus earlier-due cards whose simulated review chain lands on
// that day. Each card appears at most once.
func (s *Scheduler) futureCandidates(ctx context.Context, userID int64, target, nextDay time.Time) ([]database.DueCard, error) {
	within, err := s.progress.DueWithin(ctx, userID, target, nextDay)
	if err != nil {
		return nil, err
	}
	earlier, err := s.progress.DueBefore(ctx, userID, target)
	if err != nil {
		return nil, err
	}

	candidates := within
	seen := make(map[int64]bool, len(within))
	for _, dc := range within {
		seen[dc.CardID] = true
	}

	for _, dc := range earlier {
		if seen[dc.CardID] {
			continue
		}
		lands, err := s.landsOn(dc.DueDate, dc.Level, target)
		if err != nil {
			return nil, err
		}
		if lands {
			seen[dc.CardID] = true
			candidates = append(candidates, dc)
		}
	}
	return candidates, nil
}

// landsOn simulates successful reviews from (due, level) until the
// projected date reaches the target, and reports whether it lands on the
// target's calendar day. Each step must move the date forward, otherwise
// the projector broke its contract.
func (s *Scheduler) landsOn(due time.Time, level int, target time.Time) (bool, error) {
	current := due
	for n := 0; n < maxProjectionSteps; n++ {
		level++
		next := s.projector.Project(current, level)
		if !next.After(current) {
			return false, fmt.Errorf("projection stalled at level %d: %w", level, srs.ErrProjectorInvariant)
		}
		if !next.Before(target) {
			return sameDay(next, target), nil
		}
		current = next
	}
	return false, fmt.Errorf("projection exceeded %d steps: %w", maxProjectionSteps, srs.ErrProjectorInvariant)
}

// CardsDueNow returns every card the user should review at this moment,
// ungrouped, earliest due first. Only cards in topics the user is
// actively reviewing count, so the feed is always a subset of what
// TopicsDue reports for today.
func (s *Scheduler) CardsDueNow(ctx context.Context, userID int64) ([]database.DueCard, error) {
	return s.progress.DueOnOrBeforeReviewing(ctx, userID, time.Now().UTC())
}

// dayStart truncates a time to the beginning of its UTC calendar day
func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether two times fall on the same UTC calendar day
func sameDay(a, b time.Time) bool {
	return dayStart(a).Equal(dayStart(b))
}
