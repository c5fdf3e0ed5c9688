package database

import (
	"context"
	"fmt"

	"github.com/example/legendas/pkg/models"
)

// EpisodeRepository handles database operations for episodes
type EpisodeRepository struct{}

// NewEpisodeRepository creates a new repository instance
func NewEpisodeRepository() *EpisodeRepository {
	return &EpisodeRepository{}
}

// GetByShow returns a show's episodes in season/number order
func (r *EpisodeRepository) GetByShow(ctx context.Context, showID int64) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.SelectContext(ctx, &episodes,
		"SELECT * FROM episodes WHERE show_id = $1 ORDER BY season, number", showID)
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes: %w", err)
	}
	return episodes, nil
}

// GetByID returns a single episode
func (r *EpisodeRepository) GetByID(ctx context.Context, id int64) (*models.Episode, error) {
	var episode models.Episode
	if err := DB.GetContext(ctx, &episode, "SELECT * FROM episodes WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return &episode, nil
}

// Create inserts a new episode
func (r *EpisodeRepository) Create(ctx context.Context, episode *models.Episode) error {
	query := `
		INSERT INTO episodes (show_id, season, number, title, source_url)
		VALUES ($1, $2, $3, $4, $5)
	`
	if IsPostgres() {
		return DB.QueryRowContext(ctx, query+" RETURNING id, created_at, updated_at",
			episode.ShowID, episode.Season, episode.Number, episode.Title, episode.SourceURL,
		).Scan(&episode.ID, &episode.CreatedAt, &episode.UpdatedAt)
	}
	result, err := DB.ExecContext(ctx, query,
		episode.ShowID, episode.Season, episode.Number, episode.Title, episode.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get episode id: %w", err)
	}
	episode.ID = id
	return DB.QueryRowContext(ctx, "SELECT created_at, updated_at FROM episodes WHERE id = $1",
		episode.ID).Scan(&episode.CreatedAt, &episode.UpdatedAt)
}

// Update modifies an existing episode
func (r *EpisodeRepository) Update(ctx context.Context, episode *models.Episode) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE episodes SET show_id = $1, season = $2, number = $3, title = $4,
			source_url = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6`,
		episode.ShowID, episode.Season, episode.Number, episode.Title,
		episode.SourceURL, episode.ID)
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	return nil
}

// Delete removes an episode
func (r *EpisodeRepository) Delete(ctx context.Context, id int64) error {
	if _, err := DB.ExecContext(ctx, "DELETE FROM episodes WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}
