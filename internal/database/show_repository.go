package database

import (
	"context"
	"fmt"

	"github.com/example/legendas/pkg/models"
)

// ShowRepository handles database operations for shows
type ShowRepository struct{}

// NewShowRepository creates a new repository instance
func NewShowRepository() *ShowRepository {
	return &ShowRepository{}
}

// GetAll returns all shows
func (r *ShowRepository) GetAll(ctx context.Context) ([]models.Show, error) {
	var shows []models.Show
	if err := DB.SelectContext(ctx, &shows, "SELECT * FROM shows ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to get shows: %w", err)
	}
	return shows, nil
}

// GetByID returns a single show
func (r *ShowRepository) GetByID(ctx context.Context, id int64) (*models.Show, error) {
	var show models.Show
	if err := DB.GetContext(ctx, &show, "SELECT * FROM shows WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return &show, nil
}

// Create inserts a new show
func (r *ShowRepository) Create(ctx context.Context, show *models.Show) error {
	query := "INSERT INTO shows (title, broadcaster, url) VALUES ($1, $2, $3)"
	if IsPostgres() {
		return DB.QueryRowContext(ctx, query+" RETURNING id, created_at, updated_at",
			show.Title, show.Broadcaster, show.URL,
		).Scan(&show.ID, &show.CreatedAt, &show.UpdatedAt)
	}
	result, err := DB.ExecContext(ctx, query, show.Title, show.Broadcaster, show.URL)
	if err != nil {
		return fmt.Errorf("failed to create show: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get show id: %w", err)
	}
	show.ID = id
	return DB.QueryRowContext(ctx, "SELECT created_at, updated_at FROM shows WHERE id = $1",
		show.ID).Scan(&show.CreatedAt, &show.UpdatedAt)
}

// Update modifies an existing show
func (r *ShowRepository) Update(ctx context.Context, show *models.Show) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE shows SET title = $1, broadcaster = $2, url = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4`,
		show.Title, show.Broadcaster, show.URL, show.ID)
	if err != nil {
		return fmt.Errorf("failed to update show: %w", err)
	}
	return nil
}

// Delete removes a show
func (r *ShowRepository) Delete(ctx context.Context, id int64) error {
	if _, err := DB.ExecContext(ctx, "DELETE FROM shows WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete show: %w", err)
	}
	return nil
}
