// Package seed holds the demo catalogue shown on fresh installations.
// Persisted providers with the same id always take precedence.
package seed

import (
	"time"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

func ptr(s string) *string { return &s }

// DemoProviders returns the approved demo catalogue
func DemoProviders() []*models.Provider {
	day := func(d int) time.Time { return time.Date(2025, time.January, d, 9, 0, 0, 0, time.UTC) }
	return []*models.Provider{
		{
			ID:            "00000000-0000-4000-8000-000000000001",
			Name:          "Bright Minds Tutoring",
			Category:      "tutor",
			City:          "Lisbon",
			Description:   "Maths and science tutoring for secondary students.",
			Email:         "hello@brightminds.example",
			Phone:         ptr("+351 210 000 001"),
			Website:       ptr("https://brightminds.example"),
			Status:        models.ProviderStatusApproved,
			Tier:          models.TierFeatured,
			Badge:         ptr(models.BadgeFeatured),
			Services:      []string{"Maths", "Physics", "Exam prep"},
			PublicDisplay: true,
			RegisteredAt:  day(3),
			UpdatedAt:     day(3),
		},
		{
			ID:            "00000000-0000-4000-8000-000000000002",
			Name:          "Calm Harbour Therapy",
			Category:      "therapist",
			City:          "Porto",
			Description:   "Speech and occupational therapy for children.",
			Email:         "contact@calmharbour.example",
			Phone:         ptr("+351 220 000 002"),
			WhatsApp:      ptr("+351 910 000 002"),
			Status:        models.ProviderStatusApproved,
			Tier:          models.TierPro,
			Badge:         ptr(models.BadgeTrusted),
			Services:      []string{"Speech therapy", "Occupational therapy"},
			PublicDisplay: true,
			RegisteredAt:  day(5),
			UpdatedAt:     day(5),
		},
		{
			ID:            "00000000-0000-4000-8000-000000000003",
			Name:          "Little Acorns School",
			Category:      "school",
			City:          "Braga",
			Description:   "Bilingual early-years school.",
			Email:         "office@littleacorns.example",
			Phone:         ptr("+351 250 000 003"),
			Status:        models.ProviderStatusApproved,
			Tier:          models.TierFree,
			Badge:         ptr(models.BadgeCommunity),
			Services:      []string{"Early years"},
			PublicDisplay: true,
			RegisteredAt:  day(8),
			UpdatedAt:     day(8),
		},
	}
}
