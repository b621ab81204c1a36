package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	providers *repository.MemoryProviderStore
	slots     *repository.MemoryFeaturedSlotStore
	reviews   *repository.MemoryReviewStore
	logs      *repository.MemoryLogStore
	notifier  *recordingNotifier
	cache     *countingCache

	providerSvc *ProviderService
	featuredSvc *FeaturedService
	reviewSvc   *ReviewService
	listingSvc  *ListingService
}

// newTestEnv wires every service over in-memory stores with four slots and a fixed clock
func newTestEnv(t *testing.T, chooser Chooser, seed ...*models.Provider) *testEnv {
	t.Helper()
	env := &testEnv{
		providers: repository.NewMemoryProviderStore(seed...),
		slots:     repository.NewMemoryFeaturedSlotStore(4),
		reviews:   repository.NewMemoryReviewStore(),
		logs:      repository.NewMemoryLogStore(),
		notifier:  &recordingNotifier{},
		cache:     &countingCache{},
	}
	log := zap.NewNop()
	clock := func() time.Time { return testNow }

	env.providerSvc = NewProviderService(env.providers, env.slots, env.reviews, env.logs, env.notifier, env.cache, log)
	env.providerSvc.now = clock
	env.featuredSvc = NewFeaturedService(env.slots, env.providers, nil, env.logs, chooser, env.cache, log)
	env.featuredSvc.now = clock
	env.reviewSvc = NewReviewService(env.reviews, env.providers, env.cache, log)
	env.reviewSvc.now = clock
	env.listingSvc = NewListingService(env.providers, env.slots, env.reviews, nil, nil, log)
	return env
}

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func provider(id, status, tier string, registered time.Time) *models.Provider {
	return &models.Provider{
		ID:           id,
		Name:         "Provider " + id,
		Category:     "tutor",
		Email:        id + "@example.com",
		Status:       status,
		Tier:         tier,
		Services:     []string{},
		RegisteredAt: registered,
		UpdatedAt:    registered,
	}
}

func ids(listing []*models.PublicProvider) []string {
	out := make([]string, 0, len(listing))
	for _, p := range listing {
		out = append(out, p.ID)
	}
	return out
}

func entryIDs(entries []ListingEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Provider.ID)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []*models.ProviderEvent
	err    error
}

func (n *recordingNotifier) NotifyProvider(_ context.Context, event *models.ProviderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

// countingCache is a generation-checked in-memory ListingCache
type countingCache struct {
	mu          sync.Mutex
	listing     []*models.PublicProvider
	gen         int64
	invalidated int
	droppedSets int
}

func (c *countingCache) Get(context.Context) ([]*models.PublicProvider, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listing, c.gen, c.listing != nil
}

func (c *countingCache) Set(_ context.Context, gen int64, listing []*models.PublicProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.droppedSets++
		return
	}
	c.listing = listing
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listing = nil
	c.gen++
	c.invalidated++
}

// hookedSlotStore runs beforeList ahead of every List call and fails
// ClearByProvider with clearErr when set
type hookedSlotStore struct {
	SlotStore
	beforeList func()
	clearErr   error
}

func (s *hookedSlotStore) ClearByProvider(ctx context.Context, providerID string) ([]int, error) {
	if s.clearErr != nil {
		return nil, s.clearErr
	}
	return s.SlotStore.ClearByProvider(ctx, providerID)
}

func (s *hookedSlotStore) List(ctx context.Context) ([]*models.FeaturedSlot, error) {
	if s.beforeList != nil {
		s.beforeList()
	}
	return s.SlotStore.List(ctx)
}
