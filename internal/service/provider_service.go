package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/auth"
	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

// ProviderService owns provider registration, moderation status and plan tier
type ProviderService struct {
	providers ProviderStore
	slots     SlotStore
	reviews   ReviewStore
	audit     auditTrail
	notifier  Notifier
	cache     ListingCache
	log       *zap.Logger
	now       func() time.Time
}

// NewProviderService creates a new provider service. notifier and cache may be nil.
func NewProviderService(
	providers ProviderStore,
	slots SlotStore,
	reviews ReviewStore,
	logs LogStore,
	notifier Notifier,
	cache ListingCache,
	log *zap.Logger,
) *ProviderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &ProviderService{
		providers: providers,
		slots:     slots,
		reviews:   reviews,
		audit:     auditTrail{logs: logs, log: log},
		notifier:  notifier,
		cache:     cache,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a pending provider from the registration wizard
func (s *ProviderService) Register(ctx context.Context, req *models.RegisterProviderRequest) (*models.Provider, error) {
	tier := req.Plan
	if tier == "" {
		tier = models.TierFree
	}
	if !models.IsValidTier(tier) {
		return nil, validationError("unknown plan %q", req.Plan)
	}

	services := make([]string, 0, len(req.Services))
	for _, name := range req.Services {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, validationError("service names must not be empty")
		}
		services = append(services, name)
	}
	if len(services) > models.MaxServices(tier) {
		return nil, validationError("plan %s allows at most %d services, got %d",
			tier, models.MaxServices(tier), len(services))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.providers.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Provider{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		City:         strings.TrimSpace(req.City),
		Description:  req.Description,
		Email:        email,
		PasswordHash: hash,
		Phone:        req.Phone,
		WhatsApp:     req.WhatsApp,
		Website:      req.Website,
		Status:       models.ProviderStatusPending,
		Tier:         tier,
		Services:     services,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := s.providers.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create provider: %w", err)
	}

	s.audit.record(ctx, p.ID, models.ActionRegistered, "self",
		fmt.Sprintf("Registered on plan %s", tier), nil)
	logger.FromContext(ctx, s.log).Info("provider registered",
		zap.String("provider_id", p.ID), zap.String("tier", tier))

	return p, nil
}

// Get returns a provider by id
func (s *ProviderService) Get(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get provider", "provider "+id)
	}
	return p, nil
}

// List returns providers matching filter
func (s *ProviderService) List(ctx context.Context, filter models.ProviderFilter) ([]*models.Provider, error) {
	providers, err := s.providers.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// Approve makes a provider publicly visible. Approving an approved provider is a no-op.
func (s *ProviderService) Approve(ctx context.Context, id, actor string) (*models.Provider, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProviderStatusApproved && p.PublicDisplay {
		return p, nil
	}

	if err := s.providers.UpdateStatus(ctx, id, models.ProviderStatusApproved, true); err != nil {
		return nil, notFoundOr(err, "approve provider", "provider "+id)
	}
	p.Status = models.ProviderStatusApproved
	p.PublicDisplay = true
	s.cache.Invalidate(ctx)

	s.audit.record(ctx, id, models.ActionApproved, actor, "Provider approved", nil)
	s.afterStatusChange(ctx, p, models.EventProviderApproved)
	return p, nil
}

// Reject hides a provider and evicts it from every featured slot it holds
func (s *ProviderService) Reject(ctx context.Context, id, actor string) (*models.Provider, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.providers.UpdateStatus(ctx, id, models.ProviderStatusRejected, false); err != nil {
		return nil, notFoundOr(err, "reject provider", "provider "+id)
	}
	p.Status = models.ProviderStatusRejected
	p.PublicDisplay = false
	// the listing drops the provider on status alone, eviction only tidies slots
	s.cache.Invalidate(ctx)

	evicted, err := s.slots.ClearByProvider(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("evict rejected provider from featured slots: %w", err)
	}
	for _, slotID := range evicted {
		s.audit.record(ctx, id, models.ActionSlotEvicted, actor,
			fmt.Sprintf("Removed from featured slot %d on rejection", slotID),
			map[string]interface{}{"slot_id": slotID})
	}

	s.audit.record(ctx, id, models.ActionRejected, actor, "Provider rejected", nil)
	s.afterStatusChange(ctx, p, models.EventProviderRejected)
	return p, nil
}

func (s *ProviderService) afterStatusChange(ctx context.Context, p *models.Provider, eventType string) {
	log := logger.FromContext(ctx, s.log)
	log.Info("provider status changed",
		zap.String("provider_id", p.ID), zap.String("status", p.Status))

	event := &models.ProviderEvent{
		Type:       eventType,
		ProviderID: p.ID,
		Email:      p.Email,
		Name:       p.Name,
		OccurredAt: s.now().Format(time.RFC3339),
	}
	if err := s.notifier.NotifyProvider(ctx, event); err != nil {
		log.Warn("provider notification failed",
			zap.String("provider_id", p.ID), zap.String("event", eventType), zap.Error(err))
	}
}

// SetBadge sets the admin badge and the tier it maps to in a single write
func (s *ProviderService) SetBadge(ctx context.Context, id, badge, actor string) (*models.Provider, error) {
	tier, ok := models.TierForBadge(badge)
	if !ok {
		return nil, validationError("unknown badge %q", badge)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.providers.UpdateTierBadge(ctx, id, tier, &badge); err != nil {
		return nil, notFoundOr(err, "set badge", "provider "+id)
	}
	previous := p.Tier
	p.Tier = tier
	p.Badge = &badge

	s.audit.record(ctx, id, models.ActionBadgeChanged, actor,
		fmt.Sprintf("Badge set to %s (tier %s -> %s)", badge, previous, tier),
		map[string]interface{}{"badge": badge, "tier": tier, "previous_tier": previous})
	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("provider badge changed",
		zap.String("provider_id", id), zap.String("badge", badge), zap.String("tier", tier))

	return p, nil
}

// SetTier is the self-service plan change. Services above the new limit are
// kept; only further additions are blocked.
func (s *ProviderService) SetTier(ctx context.Context, id, tier string) (*models.Provider, error) {
	if !models.IsValidTier(tier) {
		return nil, validationError("unknown tier %q", tier)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.providers.UpdateTierBadge(ctx, id, tier, p.Badge); err != nil {
		return nil, notFoundOr(err, "set tier", "provider "+id)
	}
	previous := p.Tier
	p.Tier = tier

	s.audit.record(ctx, id, models.ActionTierChanged, "self",
		fmt.Sprintf("Plan changed from %s to %s", previous, tier),
		map[string]interface{}{"tier": tier, "previous_tier": previous})
	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("provider tier changed",
		zap.String("provider_id", id), zap.String("tier", tier))

	return p, nil
}

// AddService appends a service if the provider's tier allows another one
func (s *ProviderService) AddService(ctx context.Context, id, name string) (*models.Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("service name must not be empty")
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	limit := models.MaxServices(p.Tier)
	if len(p.Services) >= limit {
		return nil, validationError("plan %s allows at most %d services", p.Tier, limit)
	}

	services := append(append([]string(nil), p.Services...), name)
	if err := s.providers.UpdateServices(ctx, id, services); err != nil {
		return nil, notFoundOr(err, "add service", "provider "+id)
	}
	p.Services = services
	s.cache.Invalidate(ctx)

	return p, nil
}

// RemoveService deletes the service at index
func (s *ProviderService) RemoveService(ctx context.Context, id string, index int) (*models.Provider, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(p.Services) {
		return nil, validationError("service index %d out of range", index)
	}

	services := append(append([]string(nil), p.Services[:index]...), p.Services[index+1:]...)
	if err := s.providers.UpdateServices(ctx, id, services); err != nil {
		return nil, notFoundOr(err, "remove service", "provider "+id)
	}
	p.Services = services
	s.cache.Invalidate(ctx)

	return p, nil
}

// Logs pages the moderation history of a provider, newest first
func (s *ProviderService) Logs(ctx context.Context, id string, filter models.LogFilter) ([]*models.ModerationLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if filter.Action != "" && !models.IsValidAction(filter.Action) {
		return nil, validationError("unknown action %q", filter.Action)
	}
	entries, err := s.audit.logs.ListByProvider(ctx, id, filter)
	if err != nil {
		return nil, fmt.Errorf("list moderation logs: %w", err)
	}
	return entries, nil
}

// Stats aggregates the admin dashboard counters
func (s *ProviderService) Stats(ctx context.Context) (*models.DirectoryStats, error) {
	providers, err := s.providers.List(ctx, models.ProviderFilter{})
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured slots: %w", err)
	}
	pending, err := s.reviews.List(ctx, models.ReviewFilter{Status: models.ReviewStatusPending})
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}

	stats := &models.DirectoryStats{
		ProvidersByStatus: map[string]int{
			models.ProviderStatusPending:  0,
			models.ProviderStatusApproved: 0,
			models.ProviderStatusRejected: 0,
		},
		ProvidersByTier: map[string]int{
			models.TierFree:     0,
			models.TierPro:      0,
			models.TierFeatured: 0,
		},
		TotalSlots:     len(slots),
		PendingReviews: len(pending),
	}
	for _, p := range providers {
		stats.ProvidersByStatus[p.Status]++
		stats.ProvidersByTier[p.Tier]++
	}
	for _, slot := range slots {
		if !slot.IsEmpty() {
			stats.OccupiedSlots++
		}
	}
	return stats, nil
}

// auditTrail writes moderation log entries. Failures are logged, never returned.
type auditTrail struct {
	logs LogStore
	log  *zap.Logger
}

func (a auditTrail) record(ctx context.Context, providerID, action, actor, message string, metadata map[string]interface{}) {
	entry := &models.ModerationLog{
		ProviderID: providerID,
		Action:     action,
		Actor:      actor,
		Message:    message,
		Metadata:   metadata,
	}
	if err := a.logs.Create(ctx, entry); err != nil {
		logger.FromContext(ctx, a.log).Warn("failed to write moderation log",
			zap.String("provider_id", providerID), zap.String("action", action), zap.Error(err))
	}
}
