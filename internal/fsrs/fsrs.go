// Package fsrs implements the spaced-repetition scheduling engine: a
// deterministic FSRS v6 state machine over CardStudy records. Given a
// card's prior scheduling state and a rating it computes the complete
// replacement state. No fuzzing is applied, so identical inputs always
// produce identical output.
package fsrs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/legendas/pkg/models"
)

// Sentinel errors. Check with errors.Is.
var (
	ErrInvalidRating     = errors.New("fsrs: invalid rating")
	ErrInvalidParameters = errors.New("fsrs: parameters out of bounds")
)

// Intra-day steps for cards still being (re)learned.
const (
	learnAgainStep   = 1 * time.Minute
	learnHardStep    = 5 * time.Minute
	learnGoodStep    = 10 * time.Minute
	relearnAgainStep = 10 * time.Minute
)

// Config configures a Scheduler. Zero values fall back to defaults.
type Config struct {
	Parameters       [21]float64 // zero → DefaultParameters
	DesiredRetention float64     // zero → 0.9
	MaximumInterval  int         // zero → 36500 days
}

// Scheduler computes next-review scheduling state. It is stateless and
// safe for concurrent use.
type Scheduler struct {
	w                [21]float64
	decay            float64
	factor           float64
	desiredRetention float64
	maximumInterval  int
}

// New creates a Scheduler from cfg, filling zero fields with defaults.
func New(cfg Config) (*Scheduler, error) {
	params := cfg.Parameters
	if params == ([21]float64{}) {
		params = DefaultParameters
	}
	if err := validateParameters(params); err != nil {
		return nil, err
	}

	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = 0.9
	}
	if retention < 0 || retention > 1 {
		return nil, fmt.Errorf("fsrs: desired retention %f out of range (0, 1]", retention)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("fsrs: maximum interval %d must be positive", maxIvl)
	}

	decay := -params[20]
	return &Scheduler{
		w:                params,
		decay:            decay,
		factor:           math.Pow(0.9, 1.0/decay) - 1.0,
		desiredRetention: retention,
		maximumInterval:  maxIvl,
	}, nil
}

// NewDefault creates a Scheduler with all defaults.
func NewDefault() *Scheduler {
	s, err := New(Config{})
	if err != nil {
		panic(err) // defaults are always valid
	}
	return s
}

// Schedule computes the replacement scheduling state for a card after the
// learner rated it at time now. prev may be nil, meaning the card has never
// been studied; identity fields (user, phrase, direction) are carried over
// from prev when present and left zero otherwise. prev is not mutated.
func (s *Scheduler) Schedule(prev *models.CardStudy, rating models.Rating, now time.Time) (models.CardStudy, error) {
	if !rating.IsValid() {
		return models.CardStudy{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	var next models.CardStudy
	if prev != nil {
		next = *prev
	} else {
		next.State = models.StateNew
	}
	if next.State == "" {
		next.State = models.StateNew
	}

	// Interval bookkeeping: actual days since the last review, and the
	// interval that had been scheduled for it.
	var elapsedDays, scheduledDays float64
	if prev != nil && prev.LastReview != nil {
		elapsedDays = math.Max(now.Sub(*prev.LastReview).Hours()/24.0, 0)
		scheduledDays = math.Max(prev.Due.Sub(*prev.LastReview).Hours()/24.0, 0)
	}
	next.ElapsedDays = elapsedDays
	next.ScheduledDays = scheduledDays

	s.updateMemory(&next, prev, rating, elapsedDays)

	priorState := models.StateNew
	if prev != nil && prev.State != "" {
		priorState = prev.State
	}
	if rating == models.RatingAgain && (priorState == models.StateReview || priorState == models.StateRelearning) {
		next.Lapses++
	}

	// ScheduledDays keeps the interval that had been planned for this
	// review; the newly chosen interval is expressed by Due.
	interval := s.transition(&next, priorState, rating)
	next.Due = now.Add(interval)
	next.Reps++
	lastReview := now
	next.LastReview = &lastReview
	next.LastRating = int(rating)

	return next, nil
}

// Preview returns the would-be state for each of the four ratings.
func (s *Scheduler) Preview(prev *models.CardStudy, now time.Time) map[models.Rating]models.CardStudy {
	out := make(map[models.Rating]models.CardStudy, 4)
	for _, r := range []models.Rating{models.RatingAgain, models.RatingHard, models.RatingGood, models.RatingEasy} {
		c, err := s.Schedule(prev, r, now)
		if err != nil {
			continue
		}
		out[r] = c
	}
	return out
}

// updateMemory refreshes stability and difficulty on next.
func (s *Scheduler) updateMemory(next *models.CardStudy, prev *models.CardStudy, rating models.Rating, elapsedDays float64) {
	if prev == nil || prev.Reps == 0 {
		// First review of the card.
		next.Stability = s.initStability(rating)
		next.Difficulty = s.initDifficulty(rating)
		return
	}

	if elapsedDays < 1 {
		next.Stability = s.shortTermStability(prev.Stability, rating)
	} else {
		retr := s.retrievability(elapsedDays, prev.Stability)
		next.Stability = s.nextStability(prev.Difficulty, prev.Stability, retr, rating)
	}
	next.Difficulty = s.nextDifficulty(prev.Difficulty, rating)
}

// transition applies the state machine and returns the scheduling interval.
//
//	New        → Learning (Again/Hard/Good) or Review (Easy)
//	Learning   → Learning (Again/Hard) or Review (Good/Easy)
//	Review     → Relearning (Again) or Review
//	Relearning → Relearning (Again/Hard) or Review (Good/Easy)
func (s *Scheduler) transition(next *models.CardStudy, priorState models.CardState, rating models.Rating) time.Duration {
	switch priorState {
	case models.StateNew, models.StateLearning:
		switch rating {
		case models.RatingAgain:
			next.State = models.StateLearning
			return learnAgainStep
		case models.RatingHard:
			next.State = models.StateLearning
			return learnHardStep
		case models.RatingGood:
			if priorState == models.StateNew {
				next.State = models.StateLearning
				return learnGoodStep
			}
			return s.graduate(next)
		default: // Easy
			return s.graduate(next)
		}

	case models.StateRelearning:
		switch rating {
		case models.RatingAgain, models.RatingHard:
			next.State = models.StateRelearning
			return relearnAgainStep
		default:
			return s.graduate(next)
		}

	default: // Review
		if rating == models.RatingAgain {
			next.State = models.StateRelearning
			return relearnAgainStep
		}
		return s.graduate(next)
	}
}

// graduate moves the card into Review and returns its day-granularity interval.
func (s *Scheduler) graduate(next *models.CardStudy) time.Duration {
	next.State = models.StateReview
	days := s.nextIntervalDays(next.Stability)
	return time.Duration(days) * 24 * time.Hour
}
