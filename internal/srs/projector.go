package srs

import (
	"errors"
	"time"
)

// ErrProjectorInvariant is returned when a Projector produces a date that
// does not advance, which would make forward simulation loop forever.
// Check with errors.Is.
var ErrProjectorInvariant = errors.New("srs: projector violated monotonicity")

// Projector computes the next due date for a card from its current due
// date and review level. Implementations must be pure and, for a fixed
// date, non-decreasing as the level grows. The scheduler's future preview
// depends on that contract for termination.
type Projector interface {
	Project(date time.Time, level int) time.Time
}

// IntervalProjector is the default Projector: a fixed table of day
// offsets for early levels, then doubling up to a cap. Intervals never
// shrink as the level grows.
type IntervalProjector struct {
	// Day offsets for levels 1..len(Intervals)
	Intervals []int
	// Upper bound on any single interval, in days
	MaxIntervalDays int
}

// NewIntervalProjector returns a projector with the default interval table
func NewIntervalProjector() *IntervalProjector {
	return &IntervalProjector{
		Intervals:       []int{1, 2, 3, 7, 10, 15, 20, 30},
		MaxIntervalDays: 365,
	}
}

// IntervalDays reports the review interval for a level, in days
func (p *IntervalProjector) IntervalDays(level int) int {
	if level < 1 {
		level = 1
	}
	if level <= len(p.Intervals) {
		return p.Intervals[level-1]
	}
	// Past the table: double per level, capped.
	days := p.Intervals[len(p.Intervals)-1]
	for l := len(p.Intervals); l < level; l++ {
		days *= 2
		if days >= p.MaxIntervalDays {
			return p.MaxIntervalDays
		}
	}
	return days
}

// Project returns date shifted by the level's interval
func (p *IntervalProjector) Project(date time.Time, level int) time.Time {
	return date.AddDate(0, 0, p.IntervalDays(level))
}
