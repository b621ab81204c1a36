package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

const defaultLogLimit = 50

// LogRepository is the moderation audit trail. Entries are append-only.
type LogRepository struct {
	pool *pgxpool.Pool
}

func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Create appends an entry, assigning its id and timestamp when unset
func (r *LogRepository) Create(ctx context.Context, entry *models.ModerationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO moderation_logs (id, provider_id, action, actor, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, entry.ID, entry.ProviderID, entry.Action, entry.Actor, entry.Message, entry.Metadata,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append moderation log for %s: %w", entry.ProviderID, err)
	}
	return nil
}

// ListByProvider pages a provider's history newest first, optionally
// narrowed to one action
func (r *LogRepository) ListByProvider(ctx context.Context, providerID string, filter models.LogFilter) ([]*models.ModerationLog, error) {
	limit, offset := normalizePage(filter)

	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_id, action, actor, message, metadata, created_at
		FROM moderation_logs
		WHERE provider_id::text = $1
		  AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`, providerID, filter.Action, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page moderation logs for %s: %w", providerID, err)
	}
	defer rows.Close()

	entries := make([]*models.ModerationLog, 0, limit)
	for rows.Next() {
		e := &models.ModerationLog{}
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.Action, &e.Actor, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizePage(filter models.LogFilter) (limit, offset int) {
	limit = filter.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	offset = filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
