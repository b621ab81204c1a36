package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

// FeaturedService manages the fixed pool of spotlight slots. Assignments
// carry a 7-day window that is informational only: expired slots keep their
// occupant until an admin removes or rotates them. Catalogue providers are
// eligible like stored ones unless a stored provider shares their id.
type FeaturedService struct {
	slots     SlotStore
	providers ProviderStore
	catalogue []*models.Provider
	audit     auditTrail
	chooser   Chooser
	cache     ListingCache
	log       *zap.Logger
	now       func() time.Time
}

// NewFeaturedService creates a new featured slot service. chooser and cache may be nil.
func NewFeaturedService(
	slots SlotStore,
	providers ProviderStore,
	catalogue []*models.Provider,
	logs LogStore,
	chooser Chooser,
	cache ListingCache,
	log *zap.Logger,
) *FeaturedService {
	if chooser == nil {
		chooser = RandomChooser{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &FeaturedService{
		slots:     slots,
		providers: providers,
		catalogue: catalogue,
		audit:     auditTrail{logs: logs, log: log},
		chooser:   chooser,
		cache:     cache,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns every slot with its occupant's name resolved where possible
func (s *FeaturedService) List(ctx context.Context) ([]*models.FeaturedSlotInfo, error) {
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured slots: %w", err)
	}

	now := s.now()
	infos := make([]*models.FeaturedSlotInfo, 0, len(slots))
	for _, slot := range slots {
		var name *string
		if !slot.IsEmpty() {
			if p, err := s.lookup(ctx, *slot.ProviderID); err == nil {
				name = &p.Name
			}
		}
		infos = append(infos, ToFeaturedSlotInfo(slot, name, now))
	}
	return infos, nil
}

// Assign puts an approved provider into a slot, overwriting any occupant
func (s *FeaturedService) Assign(ctx context.Context, slotID int, providerID, actor string) (*models.FeaturedSlot, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	p, err := s.lookup(ctx, providerID)
	if err != nil {
		return nil, notFoundOr(err, "get provider", "provider "+providerID)
	}
	if !p.IsApproved() {
		return nil, fmt.Errorf("%w: provider %s is %s, only approved providers can be featured",
			ErrInvalidState, providerID, p.Status)
	}

	slot.Occupy(p.ID, s.now())
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, notFoundOr(err, "assign featured slot", fmt.Sprintf("featured slot %d", slotID))
	}

	s.audit.record(ctx, p.ID, models.ActionSlotAssigned, actor,
		fmt.Sprintf("Assigned to featured slot %d", slotID),
		map[string]interface{}{"slot_id": slotID, "expires_at": slot.ExpiresAt.Format(time.RFC3339)})
	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("featured slot assigned",
		zap.Int("slot_id", slotID), zap.String("provider_id", p.ID))

	return slot, nil
}

// Remove empties a slot regardless of expiry. Removing an empty slot is a no-op.
func (s *FeaturedService) Remove(ctx context.Context, slotID int, actor string) (*models.FeaturedSlot, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.IsEmpty() && slot.AssignedAt == nil && slot.ExpiresAt == nil {
		return slot, nil
	}

	previous := slot.ProviderID
	slot.Clear()
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, notFoundOr(err, "remove featured slot", fmt.Sprintf("featured slot %d", slotID))
	}

	if previous != nil {
		s.audit.record(ctx, *previous, models.ActionSlotRemoved, actor,
			fmt.Sprintf("Removed from featured slot %d", slotID),
			map[string]interface{}{"slot_id": slotID})
	}
	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("featured slot removed", zap.Int("slot_id", slotID))

	return slot, nil
}

// Rotate assigns a uniformly chosen approved provider to the slot. The
// current occupant is part of the pool and may be chosen again.
func (s *FeaturedService) Rotate(ctx context.Context, slotID int, actor string) (*models.FeaturedSlot, error) {
	slot, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.eligible(ctx)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no approved providers to rotate into slot %d", ErrNoEligibleProvider, slotID)
	}

	idx := s.chooser.Choose(len(eligible))
	if idx < 0 || idx >= len(eligible) {
		return nil, fmt.Errorf("chooser returned index %d for pool of %d", idx, len(eligible))
	}
	chosen := eligible[idx]

	previous := slot.ProviderID
	slot.Occupy(chosen.ID, s.now())
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, notFoundOr(err, "rotate featured slot", fmt.Sprintf("featured slot %d", slotID))
	}

	metadata := map[string]interface{}{"slot_id": slotID, "pool_size": len(eligible)}
	if previous != nil {
		metadata["previous_provider_id"] = *previous
	}
	s.audit.record(ctx, chosen.ID, models.ActionSlotRotated, actor,
		fmt.Sprintf("Rotated into featured slot %d", slotID), metadata)
	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("featured slot rotated",
		zap.Int("slot_id", slotID), zap.String("provider_id", chosen.ID), zap.Int("pool_size", len(eligible)))

	return slot, nil
}

func (s *FeaturedService) getSlot(ctx context.Context, slotID int) (*models.FeaturedSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, notFoundOr(err, "get featured slot", fmt.Sprintf("featured slot %d", slotID))
	}
	return slot, nil
}

// lookup finds a provider in the store, falling back to the catalogue
func (s *FeaturedService) lookup(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return p, err
	}
	for _, c := range s.catalogue {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, err
}

// eligible is the rotation pool: approved providers from the store and the
// catalogue, stored ones first in registration order
func (s *FeaturedService) eligible(ctx context.Context) ([]*models.Provider, error) {
	stored, err := s.providers.List(ctx, models.ProviderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	var pool []*models.Provider
	for _, p := range MergeProviders(stored, s.catalogue) {
		if p.IsApproved() {
			pool = append(pool, p)
		}
	}
	return pool, nil
}
