package models

import "time"

// StudySession is one sitting of flashcard study for a user and episode.
// CompletedAt stays nil for sessions the learner abandoned mid-deck.
type StudySession struct {
	ID              string     `json:"id" db:"id"`
	UserID          int64      `json:"user_id" db:"user_id"`
	EpisodeID       int64      `json:"episode_id" db:"episode_id"`
	TotalCards      int        `json:"total_cards" db:"total_cards"`
	CardsStudied    int        `json:"cards_studied" db:"cards_studied"`
	CardsCorrect    int        `json:"cards_correct" db:"cards_correct"`
	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`
}

// SessionPatch carries the fields UpdateSession may change. Nil fields are
// left untouched; writes are last-write-wins by design (a session only ever
// has one owning controller).
type SessionPatch struct {
	CardsStudied    *int       `json:"cards_studied,omitempty"`
	CardsCorrect    *int       `json:"cards_correct,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
}
