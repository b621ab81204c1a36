package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

func TestReviewService_Submit(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))

	rv, err := env.reviewSvc.Submit(context.Background(), "p-1", &models.SubmitReviewRequest{
		AuthorName: "  Maria ",
		Rating:     5,
		Text:       "Great tutor",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rv.ID)
	assert.Equal(t, "Maria", rv.AuthorName)
	assert.Equal(t, models.ReviewStatusPending, rv.Status)
	assert.Equal(t, testNow, rv.CreatedAt)
}

func TestReviewService_Submit_Validation(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := env.reviewSvc.Submit(ctx, "p-1", &models.SubmitReviewRequest{AuthorName: "A", Rating: rating})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}

	_, err := env.reviewSvc.Submit(ctx, "p-1", &models.SubmitReviewRequest{AuthorName: "   ", Rating: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.reviewSvc.Submit(ctx, "missing", &models.SubmitReviewRequest{AuthorName: "A", Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewService_Moderate(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	rv, err := env.reviewSvc.Submit(ctx, "p-1", &models.SubmitReviewRequest{AuthorName: "A", Rating: 4})
	require.NoError(t, err)

	_, err = env.reviewSvc.Moderate(ctx, rv.ID, models.ReviewStatusPending)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.reviewSvc.Moderate(ctx, "missing", models.ReviewStatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	moderated, err := env.reviewSvc.Moderate(ctx, rv.ID, models.ReviewStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, moderated.Status)
	assert.Equal(t, 1, env.cache.invalidated)

	approved, err := env.reviewSvc.List(ctx, models.ReviewFilter{ProviderID: "p-1", Status: models.ReviewStatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestListingService_RatingsCountApprovedOnly(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	for _, r := range []struct {
		rating int
		status string
	}{
		{5, models.ReviewStatusApproved},
		{3, models.ReviewStatusApproved},
		{1, models.ReviewStatusRejected},
		{1, ""},
	} {
		rv, err := env.reviewSvc.Submit(ctx, "p-1", &models.SubmitReviewRequest{AuthorName: "A", Rating: r.rating})
		require.NoError(t, err)
		if r.status != "" {
			_, err = env.reviewSvc.Moderate(ctx, rv.ID, r.status)
			require.NoError(t, err)
		}
	}

	p, err := env.listingSvc.Provider(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Rating.Count)
	assert.InDelta(t, 4.0, p.Rating.Average, 1e-9)
}

func TestListingService_EndToEnd(t *testing.T) {
	a := provider("A", models.ProviderStatusApproved, models.TierFeatured, day(1))
	b := provider("B", models.ProviderStatusApproved, models.TierPro, day(2))
	c := provider("C", models.ProviderStatusPending, models.TierFree, day(3))
	env := newTestEnv(t, nil, a, b, c)
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "A", "admin")
	require.NoError(t, err)

	listing, err := env.listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(listing))
	require.NotNil(t, listing[0].FeaturedSlotID)
	assert.Equal(t, 1, *listing[0].FeaturedSlotID)

	featured, err := env.listingSvc.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(featured))

	_, err = env.listingSvc.Provider(ctx, "C")
	assert.ErrorIs(t, err, ErrNotFound)

	// C never appears regardless of tier
	_, err = env.providerSvc.SetBadge(ctx, "C", models.BadgeFeatured, "admin")
	require.NoError(t, err)
	listing, err = env.listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(listing), "C")
}

func TestListingService_ContactDetailsHiddenOnFree(t *testing.T) {
	free := provider("free", models.ProviderStatusApproved, models.TierFree, day(1))
	free.Phone = strPtr("+1 111")
	free.Website = strPtr("https://free.example")
	pro := provider("pro", models.ProviderStatusApproved, models.TierPro, day(1))
	pro.Phone = strPtr("+1 222")
	pro.WhatsApp = strPtr("+1 333")
	env := newTestEnv(t, nil, free, pro)
	ctx := context.Background()

	p, err := env.listingSvc.Provider(ctx, "free")
	require.NoError(t, err)
	assert.Nil(t, p.Phone)
	assert.Nil(t, p.Website)

	p, err = env.listingSvc.Provider(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "+1 222", *p.Phone)
	assert.Equal(t, "+1 333", *p.WhatsApp)
}

func TestListingService_StoreShadowsCatalogue(t *testing.T) {
	stored := provider("shared", models.ProviderStatusRejected, models.TierFree, day(1))
	env := newTestEnv(t, nil, stored)

	catalogue := []*models.Provider{
		provider("shared", models.ProviderStatusApproved, models.TierFeatured, day(1)),
		provider("demo", models.ProviderStatusApproved, models.TierFree, day(2)),
	}
	listingSvc := NewListingService(env.providers, env.slots, env.reviews, nil, catalogue, env.providerSvc.log)

	listing, err := listingSvc.Listing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, ids(listing))
}

func TestListingService_UsesCache(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierFree, day(1)))
	cache := &countingCache{}
	listingSvc := NewListingService(env.providers, env.slots, env.reviews, cache, nil, env.providerSvc.log)
	ctx := context.Background()

	first, err := listingSvc.Listing(ctx)
	require.NoError(t, err)
	require.NotNil(t, cache.listing)

	// a write that bypasses invalidation is not seen until the cache is cleared
	require.NoError(t, env.providers.UpdateStatus(ctx, "p-1", models.ProviderStatusRejected, false))
	cached, err := listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(cached))

	cache.Invalidate(ctx)
	fresh, err := listingSvc.Listing(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestListingService_MutationDuringBuildIsNotCached(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		mutate  func(env *testEnv) error
		before  []string
		after   []string
	}{
		{
			name:    "approve",
			initial: models.ProviderStatusPending,
			mutate: func(env *testEnv) error {
				_, err := env.providerSvc.Approve(context.Background(), "p", "admin")
				return err
			},
			before: []string{},
			after:  []string{"p"},
		},
		{
			name:    "reject",
			initial: models.ProviderStatusApproved,
			mutate: func(env *testEnv) error {
				_, err := env.providerSvc.Reject(context.Background(), "p", "admin")
				return err
			},
			before: []string{"p"},
			after:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, provider("p", tt.initial, models.TierPro, day(1)))
			ctx := context.Background()

			// the mutation lands after providers were read but before the listing is stored
			var once sync.Once
			slots := &hookedSlotStore{SlotStore: env.slots, beforeList: func() {
				once.Do(func() { require.NoError(t, tt.mutate(env)) })
			}}
			listingSvc := NewListingService(env.providers, slots, env.reviews, env.cache, nil, env.providerSvc.log)

			first, err := listingSvc.Listing(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.before, ids(first))
			assert.Equal(t, 1, env.cache.droppedSets)

			second, err := listingSvc.Listing(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.after, ids(second))

			third, err := listingSvc.Listing(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.after, ids(third))
		})
	}
}
