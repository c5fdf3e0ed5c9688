package models

import "time"

// Phrase is a learnable unit extracted from an episode's subtitles.
// The study subsystem treats phrases as read-only.
type Phrase struct {
	ID           int64     `json:"id" db:"id"`
	ExtractionID int64     `json:"extraction_id" db:"extraction_id"`
	EpisodeID    int64     `json:"episode_id" db:"episode_id"`
	Portuguese   string    `json:"portuguese" db:"portuguese"`
	English      string    `json:"english" db:"english"`
	Context      string    `json:"context" db:"context"`
	StartMs      int64     `json:"start_ms" db:"start_ms"` // position in the subtitle track
	EndMs        int64     `json:"end_ms" db:"end_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
