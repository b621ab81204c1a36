package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

type FeaturedSlotRepository struct {
	pool *pgxpool.Pool
}

func NewFeaturedSlotRepository(pool *pgxpool.Pool) *FeaturedSlotRepository {
	return &FeaturedSlotRepository{pool: pool}
}

// List returns every slot ordered by slot id
func (r *FeaturedSlotRepository) List(ctx context.Context) ([]*models.FeaturedSlot, error) {
	query := `
		SELECT id, provider_id, assigned_at, expires_at
		FROM featured_slots
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query featured slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.FeaturedSlot
	for rows.Next() {
		slot := &models.FeaturedSlot{}
		if err := rows.Scan(&slot.ID, &slot.ProviderID, &slot.AssignedAt, &slot.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan featured slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// GetByID retrieves a slot by id
func (r *FeaturedSlotRepository) GetByID(ctx context.Context, id int) (*models.FeaturedSlot, error) {
	query := `
		SELECT id, provider_id, assigned_at, expires_at
		FROM featured_slots
		WHERE id = $1
	`
	slot := &models.FeaturedSlot{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&slot.ID, &slot.ProviderID, &slot.AssignedAt, &slot.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get featured slot: %w", err)
	}
	return slot, nil
}

// Update writes the occupant and validity window of an existing slot
func (r *FeaturedSlotRepository) Update(ctx context.Context, slot *models.FeaturedSlot) error {
	query := `
		UPDATE featured_slots
		SET provider_id = $1, assigned_at = $2, expires_at = $3
		WHERE id = $4
	`
	tag, err := r.pool.Exec(ctx, query, slot.ProviderID, slot.AssignedAt, slot.ExpiresAt, slot.ID)
	if err != nil {
		return fmt.Errorf("update featured slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearByProvider empties every slot held by the provider and returns their ids
func (r *FeaturedSlotRepository) ClearByProvider(ctx context.Context, providerID string) ([]int, error) {
	query := `
		UPDATE featured_slots
		SET provider_id = NULL, assigned_at = NULL, expires_at = NULL
		WHERE provider_id = $1
		RETURNING id
	`
	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("clear featured slots: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cleared slot: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
