package models

// ==================== Auth DTOs ====================

// RegisterProviderRequest is produced by the registration wizard
type RegisterProviderRequest struct {
	Name        string   `json:"name" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	City        string   `json:"city"`
	Description string   `json:"description"`
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8"`
	Phone       *string  `json:"phone"`
	WhatsApp    *string  `json:"whatsapp"`
	Website     *string  `json:"website"`
	Plan        string   `json:"plan"` // free, pro, featured (defaults to free)
	Services    []string `json:"services"`
}

// LoginRequest authenticates a provider account
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginRequest authenticates the directory administrator
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by the login endpoints
type TokenResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	Subject   string `json:"subject"`
	ExpiresAt string `json:"expires_at"`
}

// ==================== Provider DTOs ====================

// SetTierRequest is the self-service plan change
type SetTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// SetBadgeRequest is the admin badge change
type SetBadgeRequest struct {
	Badge string `json:"badge" binding:"required"`
}

// AddServiceRequest appends a service to the provider's list
type AddServiceRequest struct {
	Name string `json:"name" binding:"required"`
}

// ProviderInfo is the full view of a provider (owner and admin)
type ProviderInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	City          string   `json:"city"`
	Description   string   `json:"description"`
	Email         string   `json:"email"`
	Phone         *string  `json:"phone"`
	WhatsApp      *string  `json:"whatsapp"`
	Website       *string  `json:"website"`
	Status        string   `json:"status"`
	Tier          string   `json:"tier"`
	Badge         *string  `json:"badge"`
	Services      []string `json:"services"`
	MaxServices   int      `json:"max_services"`
	PublicDisplay bool     `json:"public_display"`
	RegisteredAt  string   `json:"registered_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// PublicProvider is the listing view; contact fields are omitted for the free tier
type PublicProvider struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	City           string        `json:"city"`
	Description    string        `json:"description"`
	Tier           string        `json:"tier"`
	Badge          *string       `json:"badge,omitempty"`
	Services       []string      `json:"services"`
	Phone          *string       `json:"phone,omitempty"`
	WhatsApp       *string       `json:"whatsapp,omitempty"`
	Website        *string       `json:"website,omitempty"`
	FeaturedSlotID *int          `json:"featured_slot_id,omitempty"`
	Rating         RatingSummary `json:"rating"`
	RegisteredAt   string        `json:"registered_at"`
}

// ==================== Featured Slot DTOs ====================

// AssignSlotRequest puts a provider into a featured slot
type AssignSlotRequest struct {
	ProviderID string `json:"provider_id" binding:"required"`
}

// FeaturedSlotInfo is the admin view of a slot
type FeaturedSlotInfo struct {
	ID           int     `json:"id"`
	ProviderID   *string `json:"provider_id"`
	ProviderName *string `json:"provider_name,omitempty"`
	AssignedAt   *string `json:"assigned_at"`
	ExpiresAt    *string `json:"expires_at"`
	Expired      bool    `json:"expired"`
}

// ==================== Review DTOs ====================

// SubmitReviewRequest is posted by consumers on the public page
type SubmitReviewRequest struct {
	AuthorName string `json:"author_name" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	Text       string `json:"text"`
}

// ModerateReviewRequest approves or rejects a review
type ModerateReviewRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReviewInfo is the admin view of a review
type ReviewInfo struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ReviewFilter narrows review queries; empty fields match everything
type ReviewFilter struct {
	ProviderID string
	Status     string
}

// LogFilter pages a provider's moderation history; an empty Action matches every action
type LogFilter struct {
	Action string
	Limit  int
	Offset int
}

// ProviderFilter narrows admin provider queries; empty fields match everything
type ProviderFilter struct {
	Status string
	Tier   string
}

// ==================== Admin DTOs ====================

// ModerationLogInfo is the admin view of a moderation log entry
type ModerationLogInfo struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// DirectoryStats backs the admin dashboard counters
type DirectoryStats struct {
	ProvidersByStatus map[string]int `json:"providers_by_status"`
	ProvidersByTier   map[string]int `json:"providers_by_tier"`
	OccupiedSlots     int            `json:"occupied_slots"`
	TotalSlots        int            `json:"total_slots"`
	PendingReviews    int            `json:"pending_reviews"`
}

// ProviderEvent is sent to the notification webhook on status changes
type ProviderEvent struct {
	Type       string `json:"type"`
	ProviderID string `json:"provider_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	OccurredAt string `json:"occurred_at"`
}

// Provider event types
const (
	EventProviderApproved = "provider.approved"
	EventProviderRejected = "provider.rejected"
)
