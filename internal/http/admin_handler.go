package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/service"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// AdminHandler serves the moderation dashboard endpoints
type AdminHandler struct {
	providerService *service.ProviderService
	featuredService *service.FeaturedService
	reviewService   *service.ReviewService
	log             *zap.Logger
}

func NewAdminHandler(
	providerService *service.ProviderService,
	featuredService *service.FeaturedService,
	reviewService *service.ReviewService,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		providerService: providerService,
		featuredService: featuredService,
		reviewService:   reviewService,
		log:             log,
	}
}

// actor identifies the admin in moderation logs
func actor(c *gin.Context) string {
	if id := c.GetString(ContextKeyUserID); id != "" {
		return id
	}
	return "admin"
}

// ==================== Providers ====================

// ListProviders lists providers, optionally filtered by ?status= and ?tier=
func (h *AdminHandler) ListProviders(c *gin.Context) {
	filter := models.ProviderFilter{
		Status: c.Query("status"),
		Tier:   c.Query("tier"),
	}
	providers, err := h.providerService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	infos := make([]*models.ProviderInfo, 0, len(providers))
	for _, p := range providers {
		infos = append(infos, service.ToProviderInfo(p))
	}
	respondOK(c, infos)
}

func (h *AdminHandler) GetProvider(c *gin.Context) {
	p, err := h.providerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

func (h *AdminHandler) ApproveProvider(c *gin.Context) {
	p, err := h.providerService.Approve(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

// RejectProvider hides the provider and frees any featured slot it held
func (h *AdminHandler) RejectProvider(c *gin.Context) {
	p, err := h.providerService.Reject(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

// SetBadge sets the badge and the tier it implies
func (h *AdminHandler) SetBadge(c *gin.Context) {
	var req models.SetBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	p, err := h.providerService.SetBadge(c.Request.Context(), c.Param("id"), req.Badge, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToProviderInfo(p))
}

// GetProviderLogs pages the moderation history, newest first.
// ?limit= defaults to 50 (max 500), ?offset= skips entries, ?action= narrows to one action.
func (h *AdminHandler) GetProviderLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit < 1 || limit > maxLogLimit {
		limit = defaultLogLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := models.LogFilter{Action: c.Query("action"), Limit: limit, Offset: offset}
	entries, err := h.providerService.Logs(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	infos := make([]*models.ModerationLogInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, service.ToModerationLogInfo(e))
	}
	respondOK(c, infos)
}

// ==================== Featured Slots ====================

func (h *AdminHandler) ListFeaturedSlots(c *gin.Context) {
	slots, err := h.featuredService.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, slots)
}

func slotParam(c *gin.Context) (int, bool) {
	slotID, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slotID < 1 {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, "slot must be a positive integer")
		return 0, false
	}
	return slotID, true
}

func (h *AdminHandler) AssignFeaturedSlot(c *gin.Context) {
	slotID, ok := slotParam(c)
	if !ok {
		return
	}
	var req models.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	slot, err := h.featuredService.Assign(c.Request.Context(), slotID, req.ProviderID, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToFeaturedSlotInfo(slot, nil, time.Now().UTC()))
}

func (h *AdminHandler) RemoveFeaturedSlot(c *gin.Context) {
	slotID, ok := slotParam(c)
	if !ok {
		return
	}

	slot, err := h.featuredService.Remove(c.Request.Context(), slotID, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToFeaturedSlotInfo(slot, nil, time.Now().UTC()))
}

// RotateFeaturedSlot fills the slot with a randomly chosen approved provider
func (h *AdminHandler) RotateFeaturedSlot(c *gin.Context) {
	slotID, ok := slotParam(c)
	if !ok {
		return
	}

	slot, err := h.featuredService.Rotate(c.Request.Context(), slotID, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToFeaturedSlotInfo(slot, nil, time.Now().UTC()))
}

// ==================== Reviews ====================

// ListReviews lists reviews, optionally filtered by ?provider_id= and ?status=
func (h *AdminHandler) ListReviews(c *gin.Context) {
	filter := models.ReviewFilter{
		ProviderID: c.Query("provider_id"),
		Status:     c.Query("status"),
	}
	reviews, err := h.reviewService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	infos := make([]*models.ReviewInfo, 0, len(reviews))
	for _, rv := range reviews {
		infos = append(infos, service.ToReviewInfo(rv))
	}
	respondOK(c, infos)
}

func (h *AdminHandler) ModerateReview(c *gin.Context) {
	var req models.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	rv, err := h.reviewService.Moderate(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, service.ToReviewInfo(rv))
}

// ==================== Dashboard ====================

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.providerService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, stats)
}
