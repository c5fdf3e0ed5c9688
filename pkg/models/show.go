package models

import "time"

// Show represents a TV show whose episodes supply subtitle material
type Show struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Broadcaster string    `json:"broadcaster" db:"broadcaster"`
	URL         string    `json:"url" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
