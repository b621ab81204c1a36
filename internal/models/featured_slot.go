package models

import "time"

// FeaturedSlotDuration is the validity window of a slot assignment
const FeaturedSlotDuration = 7 * 24 * time.Hour

// FeaturedSlot is one of the fixed spotlight positions on the public listing
type FeaturedSlot struct {
	ID         int
	ProviderID *string
	AssignedAt *time.Time
	ExpiresAt  *time.Time
}

// IsEmpty reports whether no provider occupies the slot
func (s *FeaturedSlot) IsEmpty() bool {
	return s.ProviderID == nil || *s.ProviderID == ""
}

// IsExpired reports whether an occupied slot is past its expiry.
// Expiry is informational: nothing clears a slot automatically.
func (s *FeaturedSlot) IsExpired(now time.Time) bool {
	if s.IsEmpty() || s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// Occupy assigns the provider and resets the validity window
func (s *FeaturedSlot) Occupy(providerID string, now time.Time) {
	pid := providerID
	assignedAt := now
	expiresAt := now.Add(FeaturedSlotDuration)
	s.ProviderID = &pid
	s.AssignedAt = &assignedAt
	s.ExpiresAt = &expiresAt
}

// Clear empties the slot
func (s *FeaturedSlot) Clear() {
	s.ProviderID = nil
	s.AssignedAt = nil
	s.ExpiresAt = nil
}

// Clone returns a copy with its own pointer fields
func (s *FeaturedSlot) Clone() *FeaturedSlot {
	if s == nil {
		return nil
	}
	cp := &FeaturedSlot{ID: s.ID, ProviderID: cloneString(s.ProviderID)}
	if s.AssignedAt != nil {
		t := *s.AssignedAt
		cp.AssignedAt = &t
	}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		cp.ExpiresAt = &t
	}
	return cp
}
