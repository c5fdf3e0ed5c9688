package models

// StudyStats aggregates a user's card studies, optionally scoped to one episode
type StudyStats struct {
	NewCards        int `json:"new_cards" db:"new_cards"`
	LearningCards   int `json:"learning_cards" db:"learning_cards"`
	ReviewCards     int `json:"review_cards" db:"review_cards"`
	RelearningCards int `json:"relearning_cards" db:"relearning_cards"`
	TotalReps       int `json:"total_reps" db:"total_reps"`
	TotalLapses     int `json:"total_lapses" db:"total_lapses"`
	DueNow          int `json:"due_now" db:"due_now"`
}

// TotalCards returns the number of card studies counted
func (s *StudyStats) TotalCards() int {
	return s.NewCards + s.LearningCards + s.ReviewCards + s.RelearningCards
}
