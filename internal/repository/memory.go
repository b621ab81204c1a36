package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// In-memory stores mirror the Postgres repositories for tests and local runs.
// Every read returns a copy so callers cannot mutate stored state.

// MemoryProviderStore is an in-memory ProviderRepository
type MemoryProviderStore struct {
	mu        sync.RWMutex
	providers map[string]*models.Provider
}

func NewMemoryProviderStore(seed ...*models.Provider) *MemoryProviderStore {
	s := &MemoryProviderStore{providers: make(map[string]*models.Provider)}
	for _, p := range seed {
		s.providers[p.ID] = p.Clone()
	}
	return s
}

func (s *MemoryProviderStore) Create(ctx context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[p.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.providers {
		if strings.EqualFold(existing.Email, p.Email) {
			return ErrDuplicate
		}
	}
	s.providers[p.ID] = p.Clone()
	return nil
}

func (s *MemoryProviderStore) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryProviderStore) GetByEmail(ctx context.Context, email string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if strings.EqualFold(p.Email, email) {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryProviderStore) List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Provider
	for _, p := range s.providers {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Tier != "" && p.Tier != filter.Tier {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Provider) int {
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryProviderStore) UpdateStatus(ctx context.Context, id, status string, publicDisplay bool) error {
	return s.update(id, func(p *models.Provider) {
		p.Status = status
		p.PublicDisplay = publicDisplay
	})
}

func (s *MemoryProviderStore) UpdateTierBadge(ctx context.Context, id, tier string, badge *string) error {
	return s.update(id, func(p *models.Provider) {
		p.Tier = tier
		if badge == nil {
			p.Badge = nil
		} else {
			b := *badge
			p.Badge = &b
		}
	})
}

func (s *MemoryProviderStore) UpdateServices(ctx context.Context, id string, services []string) error {
	return s.update(id, func(p *models.Provider) {
		p.Services = append([]string(nil), services...)
	})
}

func (s *MemoryProviderStore) update(id string, fn func(p *models.Provider)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return ErrNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryFeaturedSlotStore is an in-memory FeaturedSlotRepository
type MemoryFeaturedSlotStore struct {
	mu    sync.RWMutex
	slots map[int]*models.FeaturedSlot
}

// NewMemoryFeaturedSlotStore creates count empty slots numbered from 1
func NewMemoryFeaturedSlotStore(count int) *MemoryFeaturedSlotStore {
	s := &MemoryFeaturedSlotStore{slots: make(map[int]*models.FeaturedSlot, count)}
	for i := 1; i <= count; i++ {
		s.slots[i] = &models.FeaturedSlot{ID: i}
	}
	return s
}

func (s *MemoryFeaturedSlotStore) List(ctx context.Context) ([]*models.FeaturedSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FeaturedSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot.Clone())
	}
	slices.SortFunc(out, func(a, b *models.FeaturedSlot) int { return a.ID - b.ID })
	return out, nil
}

func (s *MemoryFeaturedSlotStore) GetByID(ctx context.Context, id int) (*models.FeaturedSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return slot.Clone(), nil
}

func (s *MemoryFeaturedSlotStore) Update(ctx context.Context, slot *models.FeaturedSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot.ID]; !ok {
		return ErrNotFound
	}
	s.slots[slot.ID] = slot.Clone()
	return nil
}

func (s *MemoryFeaturedSlotStore) ClearByProvider(ctx context.Context, providerID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, slot := range s.slots {
		if slot.ProviderID != nil && *slot.ProviderID == providerID {
			slot.Clear()
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// MemoryReviewStore is an in-memory ReviewRepository
type MemoryReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*models.Review
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{reviews: make(map[string]*models.Review)}
}

func (s *MemoryReviewStore) Create(ctx context.Context, rv *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rv
	s.reviews[rv.ID] = &cp
	return nil
}

func (s *MemoryReviewStore) GetByID(ctx context.Context, id string) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rv, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (s *MemoryReviewStore) List(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Review
	for _, rv := range s.reviews {
		if filter.ProviderID != "" && rv.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && rv.Status != filter.Status {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryReviewStore) UpdateStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok {
		return ErrNotFound
	}
	rv.Status = status
	return nil
}

// MemoryLogStore is an in-memory LogRepository
type MemoryLogStore struct {
	mu      sync.RWMutex
	entries []*models.ModerationLog
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

func (s *MemoryLogStore) Create(ctx context.Context, entry *models.ModerationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *MemoryLogStore) ListByProvider(ctx context.Context, providerID string, filter models.LogFilter) ([]*models.ModerationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit, skip := normalizePage(filter)
	out := make([]*models.ModerationLog, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if e.ProviderID != providerID || (filter.Action != "" && e.Action != filter.Action) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
