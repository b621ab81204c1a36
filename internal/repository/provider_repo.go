package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const providerColumns = `
	id, name, category, city, description, email, password_hash,
	phone, whatsapp, website, status, tier, badge, services,
	public_display, registered_at, updated_at
`

type ProviderRepository struct {
	pool *pgxpool.Pool
}

func NewProviderRepository(pool *pgxpool.Pool) *ProviderRepository {
	return &ProviderRepository{pool: pool}
}

// Create inserts a new provider record
func (r *ProviderRepository) Create(ctx context.Context, p *models.Provider) error {
	query := `
		INSERT INTO providers (
			id, name, category, city, description, email, password_hash,
			phone, whatsapp, website, status, tier, badge, services,
			public_display, registered_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17
		)
	`
	services := p.Services
	if services == nil {
		services = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Category, p.City, p.Description, p.Email, p.PasswordHash,
		p.Phone, p.WhatsApp, p.Website, p.Status, p.Tier, p.Badge, services,
		p.PublicDisplay, p.RegisteredAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert provider %s: %w", p.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

// GetByID retrieves a provider by ID
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id::text = $1`
	return r.scanProvider(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a provider by login email
func (r *ProviderRepository) GetByEmail(ctx context.Context, email string) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE lower(email) = lower($1)`
	return r.scanProvider(r.pool.QueryRow(ctx, query, email))
}

// List queries providers with optional filters, oldest registration first
func (r *ProviderRepository) List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, error) {
	query := `SELECT ` + providerColumns + `
		FROM providers
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR tier = $2)
		ORDER BY registered_at, id
	`
	rows, err := r.pool.Query(ctx, query, filter.Status, filter.Tier)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		p, err := r.scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

// UpdateStatus sets the moderation status and the public display flag together
func (r *ProviderRepository) UpdateStatus(ctx context.Context, id, status string, publicDisplay bool) error {
	query := `
		UPDATE providers
		SET status = $1, public_display = $2, updated_at = now()
		WHERE id::text = $3
	`
	return r.execOne(ctx, "update provider status", query, status, publicDisplay, id)
}

// UpdateTierBadge writes tier and badge in a single statement
func (r *ProviderRepository) UpdateTierBadge(ctx context.Context, id, tier string, badge *string) error {
	query := `
		UPDATE providers
		SET tier = $1, badge = $2, updated_at = now()
		WHERE id::text = $3
	`
	return r.execOne(ctx, "update provider tier", query, tier, badge, id)
}

// UpdateServices replaces the ordered service list
func (r *ProviderRepository) UpdateServices(ctx context.Context, id string, services []string) error {
	if services == nil {
		services = []string{}
	}
	query := `UPDATE providers SET services = $1, updated_at = now() WHERE id::text = $2`
	return r.execOne(ctx, "update provider services", query, services, id)
}

func (r *ProviderRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProviderRepository) scanProvider(row pgx.Row) (*models.Provider, error) {
	p := &models.Provider{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &p.City, &p.Description, &p.Email, &p.PasswordHash,
		&p.Phone, &p.WhatsApp, &p.Website, &p.Status, &p.Tier, &p.Badge, &p.Services,
		&p.PublicDisplay, &p.RegisteredAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	return p, nil
}
