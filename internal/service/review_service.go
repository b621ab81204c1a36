package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/logger"
	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

// ReviewService handles consumer reviews and their moderation
type ReviewService struct {
	reviews   ReviewStore
	providers ProviderStore
	cache     ListingCache
	log       *zap.Logger
	now       func() time.Time
}

func NewReviewService(reviews ReviewStore, providers ProviderStore, cache ListingCache, log *zap.Logger) *ReviewService {
	if cache == nil {
		cache = noopCache{}
	}
	return &ReviewService{
		reviews:   reviews,
		providers: providers,
		cache:     cache,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a pending review for an existing provider
func (s *ReviewService) Submit(ctx context.Context, providerID string, req *models.SubmitReviewRequest) (*models.Review, error) {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, validationError("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		return nil, validationError("author name must not be empty")
	}

	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, notFoundOr(err, "get provider", "provider "+providerID)
	}

	rv := &models.Review{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		AuthorName: author,
		Rating:     req.Rating,
		Text:       strings.TrimSpace(req.Text),
		Status:     models.ReviewStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	logger.FromContext(ctx, s.log).Info("review submitted",
		zap.String("review_id", rv.ID), zap.String("provider_id", providerID))
	return rv, nil
}

// Moderate approves or rejects a review
func (s *ReviewService) Moderate(ctx context.Context, id, status string) (*models.Review, error) {
	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		return nil, validationError("review status must be %s or %s", models.ReviewStatusApproved, models.ReviewStatusRejected)
	}

	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "get review", "review "+id)
	}
	if err := s.reviews.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFoundOr(err, "moderate review", "review "+id)
	}
	rv.Status = status

	s.cache.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("review moderated",
		zap.String("review_id", id), zap.String("status", status))
	return rv, nil
}

// List returns reviews matching filter
func (s *ReviewService) List(ctx context.Context, filter models.ReviewFilter) ([]*models.Review, error) {
	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
