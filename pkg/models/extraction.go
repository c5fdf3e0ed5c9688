package models

import "time"

// Extraction statuses
const (
	ExtractionPending   = "pending"
	ExtractionCompleted = "completed"
	ExtractionFailed    = "failed"
)

// Extraction represents one LLM phrase-extraction batch over an episode's subtitles
type Extraction struct {
	ID          int64     `json:"id" db:"id"`
	EpisodeID   int64     `json:"episode_id" db:"episode_id"`
	Model       string    `json:"model" db:"model"`
	Status      string    `json:"status" db:"status"`
	PhraseCount int       `json:"phrase_count" db:"phrase_count"`
	Error       string    `json:"error" db:"error"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
