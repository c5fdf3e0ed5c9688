package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/legendas/pkg/models"
)

// CardStudyRepository handles database operations for card scheduling state
type CardStudyRepository struct{}

// NewCardStudyRepository creates a new repository instance
func NewCardStudyRepository() *CardStudyRepository {
	return &CardStudyRepository{}
}

// GetByKey returns the card state for one (user, phrase, direction) triple,
// or nil when no row exists yet.
func (r *CardStudyRepository) GetByKey(ctx context.Context, userID, phraseID int64, direction models.StudyDirection) (*models.CardStudy, error) {
	var study models.CardStudy
	err := DB.GetContext(ctx, &study,
		"SELECT * FROM card_studies WHERE user_id = $1 AND phrase_id = $2 AND direction = $3",
		userID, phraseID, direction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card study: %w", err)
	}
	return &study, nil
}

// GetDueForEpisode returns due-or-new card states for a user within an
// episode, ordered by state priority then earliest due.
func (r *CardStudyRepository) GetDueForEpisode(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, now time.Time, limit int) ([]models.CardStudy, error) {
	query := `
		SELECT cs.* FROM card_studies cs
		JOIN phrases p ON p.id = cs.phrase_id
		WHERE cs.user_id = $1 AND p.episode_id = $2 AND cs.direction = $3
		  AND (cs.due <= $4 OR cs.state = 'new')
		ORDER BY
		  CASE cs.state
		    WHEN 'relearning' THEN 0
		    WHEN 'learning' THEN 1
		    WHEN 'review' THEN 2
		    ELSE 3
		  END,
		  cs.due ASC
		LIMIT $5
	`
	var studies []models.CardStudy
	if err := DB.SelectContext(ctx, &studies, query, userID, episodeID, direction, now, limit); err != nil {
		return nil, fmt.Errorf("failed to get due card studies: %w", err)
	}
	return studies, nil
}

// Upsert writes the card state keyed on (user_id, phrase_id, direction).
func (r *CardStudyRepository) Upsert(ctx context.Context, study *models.CardStudy) error {
	if IsPostgres() {
		query := `
			INSERT INTO card_studies (
				user_id, phrase_id, direction, state, due, stability, difficulty,
				elapsed_days, scheduled_days, reps, lapses, last_review, last_rating
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (user_id, phrase_id, direction) DO UPDATE SET
				state = EXCLUDED.state,
				due = EXCLUDED.due,
				stability = EXCLUDED.stability,
				difficulty = EXCLUDED.difficulty,
				elapsed_days = EXCLUDED.elapsed_days,
				scheduled_days = EXCLUDED.scheduled_days,
				reps = EXCLUDED.reps,
				lapses = EXCLUDED.lapses,
				last_review = EXCLUDED.last_review,
				last_rating = EXCLUDED.last_rating,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		return DB.QueryRowContext(ctx, query,
			study.UserID, study.PhraseID, study.Direction, study.State, study.Due,
			study.Stability, study.Difficulty, study.ElapsedDays, study.ScheduledDays,
			study.Reps, study.Lapses, study.LastReview, study.LastRating,
		).Scan(&study.ID, &study.CreatedAt, &study.UpdatedAt)
	}

	// SQLite path: no RETURNING support, so check for an existing row first.
	var existingID int64
	err := DB.QueryRowContext(ctx,
		"SELECT id FROM card_studies WHERE user_id = $1 AND phrase_id = $2 AND direction = $3",
		study.UserID, study.PhraseID, study.Direction).Scan(&existingID)
	switch {
	case err == nil:
		study.ID = existingID
		_, err = DB.ExecContext(ctx, `
			UPDATE card_studies SET
				state = $1, due = $2, stability = $3, difficulty = $4,
				elapsed_days = $5, scheduled_days = $6, reps = $7, lapses = $8,
				last_review = $9, last_rating = $10, updated_at = CURRENT_TIMESTAMP
			WHERE id = $11`,
			study.State, study.Due, study.Stability, study.Difficulty,
			study.ElapsedDays, study.ScheduledDays, study.Reps, study.Lapses,
			study.LastReview, study.LastRating, study.ID)
		if err != nil {
			return fmt.Errorf("failed to update card study: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		result, err := DB.ExecContext(ctx, `
			INSERT INTO card_studies (
				user_id, phrase_id, direction, state, due, stability, difficulty,
				elapsed_days, scheduled_days, reps, lapses, last_review, last_rating
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			study.UserID, study.PhraseID, study.Direction, study.State, study.Due,
			study.Stability, study.Difficulty, study.ElapsedDays, study.ScheduledDays,
			study.Reps, study.Lapses, study.LastReview, study.LastRating)
		if err != nil {
			return fmt.Errorf("failed to insert card study: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get card study id: %w", err)
		}
		study.ID = id
	default:
		return fmt.Errorf("failed to look up card study: %w", err)
	}

	return DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM card_studies WHERE id = $1",
		study.ID).Scan(&study.CreatedAt, &study.UpdatedAt)
}

// CountByState aggregates a user's card studies, optionally scoped to one episode.
func (r *CardStudyRepository) CountByState(ctx context.Context, userID int64, episodeID *int64, now time.Time) (*models.StudyStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN cs.state = 'new' THEN 1 ELSE 0 END), 0) AS new_cards,
			COALESCE(SUM(CASE WHEN cs.state = 'learning' THEN 1 ELSE 0 END), 0) AS learning_cards,
			COALESCE(SUM(CASE WHEN cs.state = 'review' THEN 1 ELSE 0 END), 0) AS review_cards,
			COALESCE(SUM(CASE WHEN cs.state = 'relearning' THEN 1 ELSE 0 END), 0) AS relearning_cards,
			COALESCE(SUM(cs.reps), 0) AS total_reps,
			COALESCE(SUM(cs.lapses), 0) AS total_lapses,
			COALESCE(SUM(CASE WHEN cs.due <= $2 THEN 1 ELSE 0 END), 0) AS due_now
		FROM card_studies cs
		WHERE cs.user_id = $1
	`
	args := []interface{}{userID, now}
	if episodeID != nil {
		query += " AND cs.phrase_id IN (SELECT id FROM phrases WHERE episode_id = $3)"
		args = append(args, *episodeID)
	}

	var stats models.StudyStats
	if err := DB.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count card studies: %w", err)
	}
	return &stats, nil
}
