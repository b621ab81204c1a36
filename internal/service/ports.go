package service

import (
	"context"
	"math/rand"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// ProviderStore persists provider records
type ProviderStore interface {
	Create(ctx context.Context, p *models.Provider) error
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	GetByEmail(ctx context.Context, email string) (*models.Provider, error)
	List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, error)
	UpdateStatus(ctx context.Context, id, status string, publicDisplay bool) error
	UpdateTierBadge(ctx context.Context, id, tier string, badge *string) error
	UpdateServices(ctx context.Context, id string, services []string) error
}

// SlotStore persists the fixed pool of featured slots
type SlotStore interface {
	List(ctx context.Context) ([]*models.FeaturedSlot, error)
	GetByID(ctx context.Context, id int) (*models.FeaturedSlot, error)
	Update(ctx context.Context, slot *models.FeaturedSlot) error
	ClearByProvider(ctx context.Context, providerID string) ([]int, error)
}

// ReviewStore persists reviews
type ReviewStore interface {
	Create(ctx context.Context, rv *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	List(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// LogStore persists the moderation audit trail
type LogStore interface {
	Create(ctx context.Context, entry *models.ModerationLog) error
	ListByProvider(ctx context.Context, providerID string, filter models.LogFilter) ([]*models.ModerationLog, error)
}

// Notifier delivers provider status events to an external collaborator
type Notifier interface {
	NotifyProvider(ctx context.Context, event *models.ProviderEvent) error
}

// ListingCache stores the resolved public listing between mutations.
// Get reports the generation it read; Set stores a listing for that
// generation only, so a listing computed before an Invalidate is never
// served after it. A negative generation means the cache is unusable and
// Set must drop the write.
type ListingCache interface {
	Get(ctx context.Context) (listing []*models.PublicProvider, gen int64, ok bool)
	Set(ctx context.Context, gen int64, listing []*models.PublicProvider)
	Invalidate(ctx context.Context)
}

// Chooser picks an index in [0, n) for slot rotation
type Chooser interface {
	Choose(n int) int
}

// ChooserFunc adapts a function to Chooser
type ChooserFunc func(n int) int

func (f ChooserFunc) Choose(n int) int { return f(n) }

// RandomChooser picks uniformly at random
type RandomChooser struct{}

func (RandomChooser) Choose(n int) int { return rand.Intn(n) }

type noopNotifier struct{}

func (noopNotifier) NotifyProvider(context.Context, *models.ProviderEvent) error { return nil }

type noopCache struct{}

func (noopCache) Get(context.Context) ([]*models.PublicProvider, int64, bool) { return nil, -1, false }
func (noopCache) Set(context.Context, int64, []*models.PublicProvider)        {}
func (noopCache) Invalidate(context.Context)                                  {}
