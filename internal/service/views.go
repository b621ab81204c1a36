package service

import (
	"time"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// ToProviderInfo builds the owner/admin view of a provider
func ToProviderInfo(p *models.Provider) *models.ProviderInfo {
	services := p.Services
	if services == nil {
		services = []string{}
	}
	return &models.ProviderInfo{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		City:          p.City,
		Description:   p.Description,
		Email:         p.Email,
		Phone:         p.Phone,
		WhatsApp:      p.WhatsApp,
		Website:       p.Website,
		Status:        p.Status,
		Tier:          p.Tier,
		Badge:         p.Badge,
		Services:      services,
		MaxServices:   models.MaxServices(p.Tier),
		PublicDisplay: p.PublicDisplay,
		RegisteredAt:  p.RegisteredAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

// ToPublicProvider builds the listing view; contact details are only
// exposed on paid tiers.
func ToPublicProvider(entry ListingEntry, rating models.RatingSummary) *models.PublicProvider {
	p := entry.Provider
	services := p.Services
	if services == nil {
		services = []string{}
	}
	pub := &models.PublicProvider{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		City:         p.City,
		Description:  p.Description,
		Tier:         p.Tier,
		Badge:        p.Badge,
		Services:     services,
		Rating:       rating,
		RegisteredAt: p.RegisteredAt.Format(time.RFC3339),
	}
	if models.ShowsContactDetails(p.Tier) {
		pub.Phone = p.Phone
		pub.WhatsApp = p.WhatsApp
		pub.Website = p.Website
	}
	if entry.SlotID > 0 {
		slotID := entry.SlotID
		pub.FeaturedSlotID = &slotID
	}
	return pub
}

// ToFeaturedSlotInfo builds the admin view of a slot
func ToFeaturedSlotInfo(slot *models.FeaturedSlot, providerName *string, now time.Time) *models.FeaturedSlotInfo {
	info := &models.FeaturedSlotInfo{
		ID:           slot.ID,
		ProviderID:   slot.ProviderID,
		ProviderName: providerName,
		Expired:      slot.IsExpired(now),
	}
	if slot.AssignedAt != nil {
		s := slot.AssignedAt.Format(time.RFC3339)
		info.AssignedAt = &s
	}
	if slot.ExpiresAt != nil {
		s := slot.ExpiresAt.Format(time.RFC3339)
		info.ExpiresAt = &s
	}
	return info
}

// ToReviewInfo builds the admin view of a review
func ToReviewInfo(rv *models.Review) *models.ReviewInfo {
	return &models.ReviewInfo{
		ID:         rv.ID,
		ProviderID: rv.ProviderID,
		AuthorName: rv.AuthorName,
		Rating:     rv.Rating,
		Text:       rv.Text,
		Status:     rv.Status,
		CreatedAt:  rv.CreatedAt.Format(time.RFC3339),
	}
}

// ToModerationLogInfo builds the admin view of a log entry
func ToModerationLogInfo(entry *models.ModerationLog) *models.ModerationLogInfo {
	return &models.ModerationLogInfo{
		ID:        entry.ID,
		Action:    entry.Action,
		Actor:     entry.Actor,
		Message:   entry.Message,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
}
