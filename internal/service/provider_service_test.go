package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
	"github.com/wenwu/saas-platform/directory-service/internal/repository"
)

func registerRequest(email, plan string, services ...string) *models.RegisterProviderRequest {
	return &models.RegisterProviderRequest{
		Name:     "Sunrise Tutors",
		Category: "tutor",
		City:     "Lisbon",
		Email:    email,
		Password: "correct-horse-battery",
		Plan:     plan,
		Services: services,
	}
}

func TestProviderService_Register(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	p, err := env.providerSvc.Register(ctx, registerRequest(" Owner@Example.com ", models.TierPro, "Maths", "Physics"))
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProviderStatusPending, p.Status)
	assert.Equal(t, models.TierPro, p.Tier)
	assert.Equal(t, "owner@example.com", p.Email)
	assert.Equal(t, []string{"Maths", "Physics"}, p.Services)
	assert.False(t, p.PublicDisplay)
	assert.NotEqual(t, "correct-horse-battery", p.PasswordHash)
	assert.Equal(t, testNow, p.RegisteredAt)

	logs, err := env.providerSvc.Logs(ctx, p.ID, models.LogFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionRegistered, logs[0].Action)
}

func TestProviderService_Register_DefaultsToFree(t *testing.T) {
	env := newTestEnv(t, nil)

	p, err := env.providerSvc.Register(context.Background(), registerRequest("a@example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, p.Tier)
}

func TestProviderService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *models.RegisterProviderRequest
	}{
		{"unknown plan", registerRequest("a@example.com", "platinum")},
		{"too many services for free", registerRequest("a@example.com", models.TierFree, "a", "b")},
		{"too many services for pro", registerRequest("a@example.com", models.TierPro, "1", "2", "3", "4", "5", "6")},
		{"blank service", registerRequest("a@example.com", models.TierPro, "  ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			_, err := env.providerSvc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProviderService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.providerSvc.Register(ctx, registerRequest("dup@example.com", ""))
	require.NoError(t, err)

	_, err = env.providerSvc.Register(ctx, registerRequest("DUP@example.com", ""))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestProviderService_ApproveThenReject_Visibility(t *testing.T) {
	p := provider("p-1", models.ProviderStatusPending, models.TierFree, day(1))
	env := newTestEnv(t, nil, p)
	ctx := context.Background()

	approved, err := env.providerSvc.Approve(ctx, "p-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusApproved, approved.Status)
	assert.True(t, approved.PublicDisplay)

	listing, err := env.listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(listing), "p-1")

	rejected, err := env.providerSvc.Reject(ctx, "p-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusRejected, rejected.Status)
	assert.False(t, rejected.PublicDisplay)

	listing, err = env.listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(listing), "p-1")

	require.Len(t, env.notifier.events, 2)
	assert.Equal(t, models.EventProviderApproved, env.notifier.events[0].Type)
	assert.Equal(t, models.EventProviderRejected, env.notifier.events[1].Type)
	assert.Equal(t, 2, env.cache.invalidated)
}

func TestProviderService_Approve_Idempotent(t *testing.T) {
	p := provider("p-1", models.ProviderStatusApproved, models.TierFree, day(1))
	p.PublicDisplay = true
	env := newTestEnv(t, nil, p)

	_, err := env.providerSvc.Approve(context.Background(), "p-1", "admin")
	require.NoError(t, err)
	assert.Empty(t, env.notifier.events)
}

func TestProviderService_Approve_FromRejected(t *testing.T) {
	p := provider("p-1", models.ProviderStatusRejected, models.TierFree, day(1))
	env := newTestEnv(t, nil, p)

	approved, err := env.providerSvc.Approve(context.Background(), "p-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderStatusApproved, approved.Status)
}

func TestProviderService_StatusChange_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.providerSvc.Approve(ctx, "missing", "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.providerSvc.Reject(ctx, "missing", "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProviderService_Reject_EvictsFeaturedSlots(t *testing.T) {
	p := provider("p-1", models.ProviderStatusApproved, models.TierFeatured, day(1))
	env := newTestEnv(t, nil, p)
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "p-1", "admin")
	require.NoError(t, err)
	_, err = env.featuredSvc.Assign(ctx, 3, "p-1", "admin")
	require.NoError(t, err)

	_, err = env.providerSvc.Reject(ctx, "p-1", "admin")
	require.NoError(t, err)

	slots, err := env.slots.List(ctx)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.True(t, slot.IsEmpty(), "slot %d still occupied", slot.ID)
	}

	logs, err := env.providerSvc.Logs(ctx, "p-1", models.LogFilter{Action: models.ActionSlotEvicted})
	require.NoError(t, err)
	var evictions int
	for _, entry := range logs {
		if entry.Action == models.ActionSlotEvicted {
			evictions++
		}
	}
	assert.Equal(t, 2, evictions)
}

func TestProviderService_NotificationFailureDoesNotFail(t *testing.T) {
	p := provider("p-1", models.ProviderStatusPending, models.TierFree, day(1))
	env := newTestEnv(t, nil, p)
	env.notifier.err = errors.New("webhook down")

	_, err := env.providerSvc.Approve(context.Background(), "p-1", "admin")
	assert.NoError(t, err)
}

func TestProviderService_SetBadge_TierFollowsAndServicesGrandfathered(t *testing.T) {
	b := provider("B", models.ProviderStatusApproved, models.TierPro, day(2))
	b.Services = []string{"Maths", "Physics", "Chemistry"}
	env := newTestEnv(t, nil, b)
	ctx := context.Background()

	p, err := env.providerSvc.SetBadge(ctx, "B", models.BadgeTrusted, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, p.Tier)
	require.NotNil(t, p.Badge)
	assert.Equal(t, models.BadgeTrusted, *p.Badge)

	p, err = env.providerSvc.SetBadge(ctx, "B", models.BadgeCommunity, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, p.Tier)
	assert.Equal(t, models.BadgeCommunity, *p.Badge)

	stored, err := env.providers.GetByID(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, stored.Tier)
	assert.Len(t, stored.Services, 3)
	assert.Equal(t, 1, models.MaxServices(stored.Tier))
}

func TestProviderService_SetBadge_Unknown(t *testing.T) {
	b := provider("B", models.ProviderStatusApproved, models.TierPro, day(2))
	env := newTestEnv(t, nil, b)

	_, err := env.providerSvc.SetBadge(context.Background(), "B", "gold", "admin")
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := env.providers.GetByID(context.Background(), "B")
	assert.Equal(t, models.TierPro, stored.Tier)
}

func TestProviderService_SetTier_KeepsBadge(t *testing.T) {
	b := provider("B", models.ProviderStatusApproved, models.TierPro, day(2))
	b.Badge = strPtr(models.BadgeTrusted)
	b.Services = []string{"1", "2", "3"}
	env := newTestEnv(t, nil, b)
	ctx := context.Background()

	p, err := env.providerSvc.SetTier(ctx, "B", models.TierFree)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, p.Tier)
	assert.Equal(t, models.BadgeTrusted, *p.Badge)
	assert.Len(t, p.Services, 3)

	_, err = env.providerSvc.SetTier(ctx, "B", "platinum")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProviderService_AddService_RespectsTierLimit(t *testing.T) {
	p := provider("p-1", models.ProviderStatusApproved, models.TierFree, day(1))
	env := newTestEnv(t, nil, p)
	ctx := context.Background()

	updated, err := env.providerSvc.AddService(ctx, "p-1", "Maths")
	require.NoError(t, err)
	assert.Equal(t, []string{"Maths"}, updated.Services)

	_, err = env.providerSvc.AddService(ctx, "p-1", "Physics")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.providerSvc.SetTier(ctx, "p-1", models.TierPro)
	require.NoError(t, err)
	for _, name := range []string{"Physics", "Chemistry", "Biology", "English"} {
		_, err = env.providerSvc.AddService(ctx, "p-1", name)
		require.NoError(t, err)
	}
	_, err = env.providerSvc.AddService(ctx, "p-1", "History")
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := env.providers.GetByID(ctx, "p-1")
	assert.Len(t, stored.Services, models.MaxServices(models.TierPro))
}

func TestProviderService_AddService_BlockedWhenOverLimit(t *testing.T) {
	p := provider("p-1", models.ProviderStatusApproved, models.TierFree, day(1))
	p.Services = []string{"a", "b", "c"}
	env := newTestEnv(t, nil, p)

	_, err := env.providerSvc.AddService(context.Background(), "p-1", "d")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProviderService_RemoveService(t *testing.T) {
	p := provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1))
	p.Services = []string{"a", "b", "c"}
	env := newTestEnv(t, nil, p)
	ctx := context.Background()

	updated, err := env.providerSvc.RemoveService(ctx, "p-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, updated.Services)

	_, err = env.providerSvc.RemoveService(ctx, "p-1", 5)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.providerSvc.RemoveService(ctx, "p-1", -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProviderService_Stats(t *testing.T) {
	env := newTestEnv(t, nil,
		provider("a", models.ProviderStatusApproved, models.TierFeatured, day(1)),
		provider("b", models.ProviderStatusApproved, models.TierPro, day(2)),
		provider("c", models.ProviderStatusPending, models.TierFree, day(3)),
	)
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "a", "admin")
	require.NoError(t, err)
	_, err = env.reviewSvc.Submit(ctx, "b", &models.SubmitReviewRequest{AuthorName: "Ana", Rating: 4})
	require.NoError(t, err)

	stats, err := env.providerSvc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ProvidersByStatus[models.ProviderStatusApproved])
	assert.Equal(t, 1, stats.ProvidersByStatus[models.ProviderStatusPending])
	assert.Equal(t, 0, stats.ProvidersByStatus[models.ProviderStatusRejected])
	assert.Equal(t, 1, stats.ProvidersByTier[models.TierFree])
	assert.Equal(t, 1, stats.OccupiedSlots)
	assert.Equal(t, 4, stats.TotalSlots)
	assert.Equal(t, 1, stats.PendingReviews)
}

// racingEmailStore misses every email lookup, as when a concurrent
// registration has not committed yet
type racingEmailStore struct {
	ProviderStore
}

func (racingEmailStore) GetByEmail(context.Context, string) (*models.Provider, error) {
	return nil, repository.ErrNotFound
}

func TestProviderService_Register_DuplicateCaughtOnInsert(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.providerSvc.Register(ctx, registerRequest("owner@example.com", ""))
	require.NoError(t, err)

	svc := NewProviderService(racingEmailStore{env.providers}, env.slots, env.reviews, env.logs, env.notifier, env.cache, env.providerSvc.log)
	_, err = svc.Register(ctx, registerRequest("OWNER@example.com", ""))
	assert.ErrorIs(t, err, ErrEmailTaken)

	all, err := env.providers.List(ctx, models.ProviderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProviderService_Reject_EvictionFailureStillHidesProvider(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 2, "p-1", "admin")
	require.NoError(t, err)

	listingSvc := NewListingService(env.providers, env.slots, env.reviews, env.cache, nil, env.providerSvc.log)
	listing, err := listingSvc.Listing(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p-1"}, ids(listing))

	failing := &hookedSlotStore{SlotStore: env.slots, clearErr: errors.New("connection reset")}
	svc := NewProviderService(env.providers, failing, env.reviews, env.logs, env.notifier, env.cache, env.providerSvc.log)

	_, err = svc.Reject(ctx, "p-1", "admin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	listing, err = listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.Empty(t, listing)

	// rejecting again finishes the eviction
	_, err = env.providerSvc.Reject(ctx, "p-1", "admin")
	require.NoError(t, err)
	slot, err := env.slots.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, slot.IsEmpty())
}

func TestProviderService_Logs_FilterAndPage(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusPending, models.TierFree, day(1)))
	ctx := context.Background()

	_, err := env.providerSvc.Approve(ctx, "p-1", "admin")
	require.NoError(t, err)
	_, err = env.providerSvc.SetBadge(ctx, "p-1", models.BadgeTrusted, "admin")
	require.NoError(t, err)
	_, err = env.providerSvc.SetBadge(ctx, "p-1", models.BadgeFeatured, "admin")
	require.NoError(t, err)

	badges, err := env.providerSvc.Logs(ctx, "p-1", models.LogFilter{Action: models.ActionBadgeChanged})
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, models.BadgeFeatured, badges[0].Metadata["badge"])

	older, err := env.providerSvc.Logs(ctx, "p-1", models.LogFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, models.ActionApproved, older[0].Action)

	_, err = env.providerSvc.Logs(ctx, "p-1", models.LogFilter{Action: "deleted"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.providerSvc.Logs(ctx, "missing", models.LogFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}
