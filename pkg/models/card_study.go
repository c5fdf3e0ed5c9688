package models

import (
	"fmt"
	"time"
)

// Rating is the learner's assessment of recall quality after seeing the answer
type Rating int

const (
	RatingAgain Rating = iota + 1 // failed to recall
	RatingHard                    // recalled with significant difficulty
	RatingGood                    // recalled with some effort
	RatingEasy                    // recalled effortlessly
)

var ratingNames = [...]string{RatingAgain: "again", RatingHard: "hard", RatingGood: "good", RatingEasy: "easy"}

// IsValid reports whether r is one of the four defined ratings
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// IsCorrect reports whether the rating counts as a correct answer (Good or Easy)
func (r Rating) IsCorrect() bool {
	return r >= RatingGood
}

// CardState is the lifecycle stage of a card
type CardState string

const (
	StateNew        CardState = "new"
	StateLearning   CardState = "learning"
	StateReview     CardState = "review"
	StateRelearning CardState = "relearning"
)

// StudyDirection distinguishes independent scheduling of the same phrase:
// recognition shows Portuguese and asks for English, production the reverse.
type StudyDirection string

const (
	DirectionRecognition StudyDirection = "recognition"
	DirectionProduction  StudyDirection = "production"
)

// IsValid reports whether d is a defined study direction
func (d StudyDirection) IsValid() bool {
	return d == DirectionRecognition || d == DirectionProduction
}

// CardStudy is the persisted spaced-repetition state for one
// (user, phrase, direction) triple. Exactly one row exists per triple;
// it is created on the first rating and upserted on every one after.
type CardStudy struct {
	ID            int64          `json:"id" db:"id"`
	UserID        int64          `json:"user_id" db:"user_id"`
	PhraseID      int64          `json:"phrase_id" db:"phrase_id"`
	Direction     StudyDirection `json:"direction" db:"direction"`
	State         CardState      `json:"state" db:"state"`
	Due           time.Time      `json:"due" db:"due"`
	Stability     float64        `json:"stability" db:"stability"`
	Difficulty    float64        `json:"difficulty" db:"difficulty"`
	ElapsedDays   float64        `json:"elapsed_days" db:"elapsed_days"`
	ScheduledDays float64        `json:"scheduled_days" db:"scheduled_days"`
	Reps          int            `json:"reps" db:"reps"`
	Lapses        int            `json:"lapses" db:"lapses"`
	LastReview    *time.Time     `json:"last_review" db:"last_review"`
	LastRating    int            `json:"last_rating" db:"last_rating"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// StudyCard joins a phrase with its optional scheduling state for one
// study direction. Built fresh per query, never persisted.
type StudyCard struct {
	Phrase    Phrase         `json:"phrase"`
	Study     *CardStudy     `json:"study,omitempty"`
	Direction StudyDirection `json:"direction"`
	IsNew     bool           `json:"is_new"`
	IsDue     bool           `json:"is_due"`
}
