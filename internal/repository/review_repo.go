package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	query := `
		INSERT INTO reviews (id, provider_id, author_name, rating, text, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		rv.ID, rv.ProviderID, rv.AuthorName, rv.Rating, rv.Text, rv.Status, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	query := `
		SELECT id, provider_id, author_name, rating, text, status, created_at
		FROM reviews
		WHERE id::text = $1
	`
	rv := &models.Review{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.ProviderID, &rv.AuthorName, &rv.Rating, &rv.Text, &rv.Status, &rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// List queries reviews with optional filters, newest first
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error) {
	query := `
		SELECT id, provider_id, author_name, rating, text, status, created_at
		FROM reviews
		WHERE ($1 = '' OR provider_id::text = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
	`
	rows, err := r.pool.Query(ctx, query, filter.ProviderID, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		rv := &models.Review{}
		err := rows.Scan(
			&rv.ID, &rv.ProviderID, &rv.AuthorName, &rv.Rating, &rv.Text, &rv.Status, &rv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// UpdateStatus sets the moderation status of a review
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE reviews SET status = $1 WHERE id::text = $2`
	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
