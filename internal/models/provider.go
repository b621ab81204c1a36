package models

import "time"

// Provider status constants
const (
	ProviderStatusPending  = "pending"
	ProviderStatusApproved = "approved"
	ProviderStatusRejected = "rejected"
)

// Plan tier constants
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierFeatured = "featured"
)

// Badge constants (admin-facing labels)
const (
	BadgeCommunity = "community"
	BadgeTrusted   = "trusted"
	BadgeFeatured  = "featured"
)

// Provider represents a listed service vendor in the directory
type Provider struct {
	ID            string
	Name          string
	Category      string
	City          string
	Description   string
	Email         string
	PasswordHash  string
	Phone         *string
	WhatsApp      *string
	Website       *string
	Status        string
	Tier          string
	Badge         *string
	Services      []string
	PublicDisplay bool
	RegisteredAt  time.Time
	UpdatedAt     time.Time
}

// IsApproved reports whether the provider may appear publicly
func (p *Provider) IsApproved() bool {
	return p.Status == ProviderStatusApproved
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (p *Provider) Clone() *Provider {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Services = append([]string(nil), p.Services...)
	cp.Phone = cloneString(p.Phone)
	cp.WhatsApp = cloneString(p.WhatsApp)
	cp.Website = cloneString(p.Website)
	cp.Badge = cloneString(p.Badge)
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// MaxServices returns the service-count limit of a plan tier.
// Unknown tiers get the free limit.
func MaxServices(tier string) int {
	switch tier {
	case TierFeatured:
		return 10
	case TierPro:
		return 5
	default:
		return 1
	}
}

// TierPriority orders tiers for the public listing (lower sorts first)
func TierPriority(tier string) int {
	switch tier {
	case TierFeatured:
		return 0
	case TierPro:
		return 1
	default:
		return 2
	}
}

// TierForBadge maps an admin badge onto the plan tier it implies
func TierForBadge(badge string) (string, bool) {
	switch badge {
	case BadgeCommunity:
		return TierFree, true
	case BadgeTrusted:
		return TierPro, true
	case BadgeFeatured:
		return TierFeatured, true
	default:
		return "", false
	}
}

// IsValidTier reports whether tier is a known plan tier
func IsValidTier(tier string) bool {
	return tier == TierFree || tier == TierPro || tier == TierFeatured
}

// ShowsContactDetails reports whether direct contact fields are public for a tier
func ShowsContactDetails(tier string) bool {
	return tier != TierFree
}
