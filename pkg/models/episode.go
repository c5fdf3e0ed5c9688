package models

import "time"

// Episode represents a single episode of a show. Its ID is the scope
// used to select phrases for a study session.
type Episode struct {
	ID        int64     `json:"id" db:"id"`
	ShowID    int64     `json:"show_id" db:"show_id"`
	Season    int       `json:"season" db:"season"`
	Number    int       `json:"number" db:"number"`
	Title     string    `json:"title" db:"title"`
	SourceURL string    `json:"source_url" db:"source_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
