package database

import (
	"context"
	"fmt"

	"github.com/example/legendas/pkg/models"
)

// ExtractionRepository handles database operations for extraction batches
type ExtractionRepository struct{}

// NewExtractionRepository creates a new repository instance
func NewExtractionRepository() *ExtractionRepository {
	return &ExtractionRepository{}
}

// GetByEpisode returns an episode's extraction batches, newest first
func (r *ExtractionRepository) GetByEpisode(ctx context.Context, episodeID int64) ([]models.Extraction, error) {
	var extractions []models.Extraction
	err := DB.SelectContext(ctx, &extractions,
		"SELECT * FROM extractions WHERE episode_id = $1 ORDER BY created_at DESC", episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get extractions: %w", err)
	}
	return extractions, nil
}

// GetByID returns a single extraction batch
func (r *ExtractionRepository) GetByID(ctx context.Context, id int64) (*models.Extraction, error) {
	var extraction models.Extraction
	if err := DB.GetContext(ctx, &extraction, "SELECT * FROM extractions WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}
	return &extraction, nil
}

// Create inserts a new extraction batch in pending state
func (r *ExtractionRepository) Create(ctx context.Context, extraction *models.Extraction) error {
	if extraction.Status == "" {
		extraction.Status = models.ExtractionPending
	}
	query := "INSERT INTO extractions (episode_id, model, status) VALUES ($1, $2, $3)"
	if IsPostgres() {
		return DB.QueryRowContext(ctx, query+" RETURNING id, created_at, updated_at",
			extraction.EpisodeID, extraction.Model, extraction.Status,
		).Scan(&extraction.ID, &extraction.CreatedAt, &extraction.UpdatedAt)
	}
	result, err := DB.ExecContext(ctx, query,
		extraction.EpisodeID, extraction.Model, extraction.Status)
	if err != nil {
		return fmt.Errorf("failed to create extraction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get extraction id: %w", err)
	}
	extraction.ID = id
	return DB.QueryRowContext(ctx, "SELECT created_at, updated_at FROM extractions WHERE id = $1",
		extraction.ID).Scan(&extraction.CreatedAt, &extraction.UpdatedAt)
}

// MarkCompleted records a successful extraction and the model that ran it
func (r *ExtractionRepository) MarkCompleted(ctx context.Context, id int64, model string, phraseCount int) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE extractions SET status = $1, model = $2, phrase_count = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`,
		models.ExtractionCompleted, model, phraseCount, id)
	if err != nil {
		return fmt.Errorf("failed to mark extraction completed: %w", err)
	}
	return nil
}

// MarkFailed records a failed extraction with its error text
func (r *ExtractionRepository) MarkFailed(ctx context.Context, id int64, cause string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE extractions SET status = $1, error = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		models.ExtractionFailed, cause, id)
	if err != nil {
		return fmt.Errorf("failed to mark extraction failed: %w", err)
	}
	return nil
}
