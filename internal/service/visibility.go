package service

import (
	"slices"
	"strings"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// ListingEntry is one row of the public listing. SlotID is 0 when the
// provider does not occupy a featured slot.
type ListingEntry struct {
	Provider *models.Provider
	SlotID   int
}

// ResolveListing computes the public listing order. It is a pure function of
// its inputs:
//   - only approved providers are listed
//   - providers occupying a featured slot come first, by slot id ascending
//     (a slot may reference a provider by id or by name)
//   - everyone else sorts by tier priority, then newest registration first
func ResolveListing(providers []*models.Provider, slots []*models.FeaturedSlot) []ListingEntry {
	ordered := make([]*models.FeaturedSlot, 0, len(slots))
	for _, s := range slots {
		if s != nil && !s.IsEmpty() {
			ordered = append(ordered, s)
		}
	}
	slices.SortFunc(ordered, func(a, b *models.FeaturedSlot) int { return a.ID - b.ID })

	var featured, rest []ListingEntry
	for _, p := range providers {
		if p == nil || !p.IsApproved() {
			continue
		}
		if slotID := lowestSlotFor(p, ordered); slotID > 0 {
			featured = append(featured, ListingEntry{Provider: p, SlotID: slotID})
		} else {
			rest = append(rest, ListingEntry{Provider: p})
		}
	}

	slices.SortStableFunc(featured, func(a, b ListingEntry) int {
		if a.SlotID != b.SlotID {
			return a.SlotID - b.SlotID
		}
		return strings.Compare(a.Provider.ID, b.Provider.ID)
	})
	slices.SortStableFunc(rest, func(a, b ListingEntry) int {
		pa, pb := models.TierPriority(a.Provider.Tier), models.TierPriority(b.Provider.Tier)
		if pa != pb {
			return pa - pb
		}
		if c := b.Provider.RegisteredAt.Compare(a.Provider.RegisteredAt); c != 0 {
			return c
		}
		return strings.Compare(a.Provider.ID, b.Provider.ID)
	})

	return append(featured, rest...)
}

// slots must already be sorted by id
func lowestSlotFor(p *models.Provider, slots []*models.FeaturedSlot) int {
	for _, s := range slots {
		ref := *s.ProviderID
		if ref == p.ID || (p.Name != "" && ref == p.Name) {
			return s.ID
		}
	}
	return 0
}

// MergeProviders concatenates provider lists keeping only the first record
// seen for each id, so earlier lists shadow later ones.
func MergeProviders(lists ...[]*models.Provider) []*models.Provider {
	seen := make(map[string]bool)
	var merged []*models.Provider
	for _, list := range lists {
		for _, p := range list {
			if p == nil || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	return merged
}
