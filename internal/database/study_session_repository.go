package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/legendas/pkg/models"
)

// StudySessionRepository handles database operations for study sessions
type StudySessionRepository struct{}

// NewStudySessionRepository creates a new repository instance
func NewStudySessionRepository() *StudySessionRepository {
	return &StudySessionRepository{}
}

// GetByID returns a single session
func (r *StudySessionRepository) GetByID(ctx context.Context, id string) (*models.StudySession, error) {
	var session models.StudySession
	if err := DB.GetContext(ctx, &session, "SELECT * FROM study_sessions WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get study session: %w", err)
	}
	return &session, nil
}

// GetByUser returns a user's sessions, most recent first
func (r *StudySessionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := DB.SelectContext(ctx, &sessions,
		"SELECT * FROM study_sessions WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get study sessions: %w", err)
	}
	return sessions, nil
}

// Create inserts a new session row
func (r *StudySessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO study_sessions (
			id, user_id, episode_id, total_cards, cards_studied, cards_correct,
			started_at, completed_at, duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.UserID, session.EpisodeID, session.TotalCards,
		session.CardsStudied, session.CardsCorrect, session.StartedAt,
		session.CompletedAt, session.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to create study session: %w", err)
	}
	return nil
}

// Patch applies a partial update, last write wins, and returns the stored row.
func (r *StudySessionRepository) Patch(ctx context.Context, id string, patch models.SessionPatch) (*models.StudySession, error) {
	var sets []string
	var args []interface{}
	n := 1
	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if patch.CardsStudied != nil {
		add("cards_studied", *patch.CardsStudied)
	}
	if patch.CardsCorrect != nil {
		add("cards_correct", *patch.CardsCorrect)
	}
	if patch.CompletedAt != nil {
		add("completed_at", *patch.CompletedAt)
	}
	if patch.DurationSeconds != nil {
		add("duration_seconds", *patch.DurationSeconds)
	}
	if len(sets) > 0 {
		query := fmt.Sprintf("UPDATE study_sessions SET %s WHERE id = $%d", strings.Join(sets, ", "), n)
		args = append(args, id)
		result, err := DB.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update study session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return nil, fmt.Errorf("study session %s not found", id)
		}
	}
	return r.GetByID(ctx, id)
}
