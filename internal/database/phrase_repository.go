package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/legendas/pkg/models"
)

// PhraseRepository handles database operations for phrases
type PhraseRepository struct{}

// NewPhraseRepository creates a new repository instance
func NewPhraseRepository() *PhraseRepository {
	return &PhraseRepository{}
}

// GetByID returns a single phrase
func (r *PhraseRepository) GetByID(ctx context.Context, id int64) (*models.Phrase, error) {
	var phrase models.Phrase
	if err := DB.GetContext(ctx, &phrase, "SELECT * FROM phrases WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get phrase: %w", err)
	}
	return &phrase, nil
}

// GetByIDs returns the phrases with the given ids
func (r *PhraseRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Phrase, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM phrases WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build phrase query: %w", err)
	}
	query = DB.Rebind(query)
	var phrases []models.Phrase
	if err := DB.SelectContext(ctx, &phrases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get phrases: %w", err)
	}
	return phrases, nil
}

// GetByEpisode returns phrases belonging to an episode in id order
func (r *PhraseRepository) GetByEpisode(ctx context.Context, episodeID int64, limit int) ([]models.Phrase, error) {
	var phrases []models.Phrase
	err := DB.SelectContext(ctx, &phrases,
		"SELECT * FROM phrases WHERE episode_id = $1 ORDER BY id LIMIT $2",
		episodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get phrases for episode: %w", err)
	}
	return phrases, nil
}

// GetUnstudied returns phrases in the episode with no card state yet for the
// user and direction.
func (r *PhraseRepository) GetUnstudied(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, limit int) ([]models.Phrase, error) {
	query := `
		SELECT p.* FROM phrases p
		LEFT JOIN card_studies cs
		  ON cs.phrase_id = p.id AND cs.user_id = $1 AND cs.direction = $2
		WHERE p.episode_id = $3 AND cs.id IS NULL
		ORDER BY p.id
		LIMIT $4
	`
	var phrases []models.Phrase
	if err := DB.SelectContext(ctx, &phrases, query, userID, direction, episodeID, limit); err != nil {
		return nil, fmt.Errorf("failed to get unstudied phrases: %w", err)
	}
	return phrases, nil
}

// Create inserts a new phrase
func (r *PhraseRepository) Create(ctx context.Context, phrase *models.Phrase) error {
	query := `
		INSERT INTO phrases (extraction_id, episode_id, portuguese, english, context, start_ms, end_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if IsPostgres() {
		return DB.QueryRowContext(ctx, query+" RETURNING id, created_at, updated_at",
			phrase.ExtractionID, phrase.EpisodeID, phrase.Portuguese, phrase.English,
			phrase.Context, phrase.StartMs, phrase.EndMs,
		).Scan(&phrase.ID, &phrase.CreatedAt, &phrase.UpdatedAt)
	}
	result, err := DB.ExecContext(ctx, query,
		phrase.ExtractionID, phrase.EpisodeID, phrase.Portuguese, phrase.English,
		phrase.Context, phrase.StartMs, phrase.EndMs)
	if err != nil {
		return fmt.Errorf("failed to create phrase: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get phrase id: %w", err)
	}
	phrase.ID = id
	return DB.QueryRowContext(ctx, "SELECT created_at, updated_at FROM phrases WHERE id = $1",
		phrase.ID).Scan(&phrase.CreatedAt, &phrase.UpdatedAt)
}

// Delete removes a phrase and its card studies
func (r *PhraseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := DB.ExecContext(ctx, "DELETE FROM card_studies WHERE phrase_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete card studies for phrase: %w", err)
	}
	if _, err := DB.ExecContext(ctx, "DELETE FROM phrases WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete phrase: %w", err)
	}
	return nil
}
