package models

import "time"

// Review status constants
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a consumer rating of a provider; ProviderID is a weak reference
type Review struct {
	ID         string
	ProviderID string
	AuthorName string
	Rating     int
	Text       string
	Status     string
	CreatedAt  time.Time
}

// RatingSummary is the public aggregate of a provider's approved reviews
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// SummarizeRatings aggregates approved reviews only
func SummarizeRatings(reviews []*Review) RatingSummary {
	var sum, count int
	for _, r := range reviews {
		if r.Status != ReviewStatusApproved {
			continue
		}
		sum += r.Rating
		count++
	}
	if count == 0 {
		return RatingSummary{}
	}
	return RatingSummary{Average: float64(sum) / float64(count), Count: count}
}

// ModerationLog records an admin or system action against a provider
type ModerationLog struct {
	ID         string
	ProviderID string
	Action     string
	Actor      string
	Message    string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}

// Moderation log actions
const (
	ActionRegistered   = "registered"
	ActionApproved     = "approved"
	ActionRejected     = "rejected"
	ActionBadgeChanged = "badge_changed"
	ActionTierChanged  = "tier_changed"
	ActionSlotAssigned = "slot_assigned"
	ActionSlotRemoved  = "slot_removed"
	ActionSlotRotated  = "slot_rotated"
	ActionSlotEvicted  = "slot_evicted"
)

// IsValidAction reports whether action is a known moderation log action
func IsValidAction(action string) bool {
	switch action {
	case ActionRegistered, ActionApproved, ActionRejected, ActionBadgeChanged, ActionTierChanged,
		ActionSlotAssigned, ActionSlotRemoved, ActionSlotRotated, ActionSlotEvicted:
		return true
	}
	return false
}
