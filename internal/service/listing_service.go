package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// ListingService serves the public directory. Persisted providers shadow any
// catalogue entry with the same id.
type ListingService struct {
	providers ProviderStore
	slots     SlotStore
	reviews   ReviewStore
	cache     ListingCache
	catalogue []*models.Provider
	log       *zap.Logger
}

// NewListingService creates a new listing service. catalogue holds demo
// providers shown alongside persisted ones; cache may be nil.
func NewListingService(
	providers ProviderStore,
	slots SlotStore,
	reviews ReviewStore,
	cache ListingCache,
	catalogue []*models.Provider,
	log *zap.Logger,
) *ListingService {
	if cache == nil {
		cache = noopCache{}
	}
	return &ListingService{
		providers: providers,
		slots:     slots,
		reviews:   reviews,
		cache:     cache,
		catalogue: catalogue,
		log:       log,
	}
}

// Listing returns the ordered public listing
func (s *ListingService) Listing(ctx context.Context) ([]*models.PublicProvider, error) {
	cached, gen, ok := s.cache.Get(ctx)
	if ok {
		return cached, nil
	}

	stored, err := s.providers.List(ctx, models.ProviderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured slots: %w", err)
	}
	approved, err := s.reviews.List(ctx, models.ReviewFilter{Status: models.ReviewStatusApproved})
	if err != nil {
		return nil, fmt.Errorf("list approved reviews: %w", err)
	}

	byProvider := make(map[string][]*models.Review)
	for _, rv := range approved {
		byProvider[rv.ProviderID] = append(byProvider[rv.ProviderID], rv)
	}

	entries := ResolveListing(MergeProviders(stored, s.catalogue), slots)
	listing := make([]*models.PublicProvider, 0, len(entries))
	for _, entry := range entries {
		rating := models.SummarizeRatings(byProvider[entry.Provider.ID])
		listing = append(listing, ToPublicProvider(entry, rating))
	}

	s.cache.Set(ctx, gen, listing)
	return listing, nil
}

// Provider returns one publicly listed provider
func (s *ListingService) Provider(ctx context.Context, id string) (*models.PublicProvider, error) {
	listing, err := s.Listing(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range listing {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: provider %s", ErrNotFound, id)
}

// Featured returns the providers currently occupying featured slots, in slot order
func (s *ListingService) Featured(ctx context.Context) ([]*models.PublicProvider, error) {
	listing, err := s.Listing(ctx)
	if err != nil {
		return nil, err
	}
	featured := make([]*models.PublicProvider, 0)
	for _, p := range listing {
		if p.FeaturedSlotID != nil {
			featured = append(featured, p)
		}
	}
	return featured, nil
}
