package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/service"
)

// Handler serves the public, auth and provider self-service endpoints
type Handler struct {
	providerService *service.ProviderService
	reviewService   *service.ReviewService
	listingService  *service.ListingService
	authService     *service.AuthService
	log             *zap.Logger
}

func NewHandler(
	providerService *service.ProviderService,
	reviewService *service.ReviewService,
	listingService *service.ListingService,
	authService *service.AuthService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		providerService: providerService,
		reviewService:   reviewService,
		listingService:  listingService,
		authService:     authService,
		log:             log,
	}
}

// ==================== Public API Handlers ====================

// ListPublicProviders returns the resolved public listing
func (h *Handler) ListPublicProviders(c *gin.Context) {
	listing, err := h.listingService.Listing(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, listing)
}

// GetPublicProvider returns one listed provider
func (h *Handler) GetPublicProvider(c *gin.Context) {
	p, err := h.listingService.Provider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

// ListPublicFeatured returns the providers in featured slots, in slot order
func (h *Handler) ListPublicFeatured(c *gin.Context) {
	featured, err := h.listingService.Featured(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, featured)
}

// SubmitReview accepts a consumer review; it stays pending until moderated
func (h *Handler) SubmitReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, service.ToReviewInfo(review))
}

// ==================== Auth Handlers ====================

// Register creates a pending provider account
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	p, err := h.providerService.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, service.ToProviderInfo(p))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, token)
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	token, err := h.authService.AdminLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, token)
}

// ==================== Provider Self-Service Handlers ====================

// GetMyProvider returns the caller's own provider record
func (h *Handler) GetMyProvider(c *gin.Context) {
	p, err := h.providerService.Get(c.Request.Context(), c.GetString(ContextKeyUserID))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

// SetMyTier changes the caller's plan. Existing services above the new limit are kept.
func (h *Handler) SetMyTier(c *gin.Context) {
	var req models.SetTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	p, err := h.providerService.SetTier(c.Request.Context(), c.GetString(ContextKeyUserID), req.Tier)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

func (h *Handler) AddMyService(c *gin.Context) {
	var req models.AddServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	p, err := h.providerService.AddService(c.Request.Context(), c.GetString(ContextKeyUserID), req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

func (h *Handler) RemoveMyService(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, "index must be an integer")
		return
	}

	p, err := h.providerService.RemoveService(c.Request.Context(), c.GetString(ContextKeyUserID), index)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}
