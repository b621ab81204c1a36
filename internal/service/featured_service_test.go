package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenwu/saas-platform/directory-service/internal/models"
)

func firstChooser() Chooser { return ChooserFunc(func(int) int { return 0 }) }

func TestFeaturedService_Assign(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	slot, err := env.featuredSvc.Assign(ctx, 2, "p-1", "admin")
	require.NoError(t, err)

	assert.Equal(t, "p-1", *slot.ProviderID)
	assert.Equal(t, testNow, *slot.AssignedAt)
	assert.Equal(t, float64(604800), slot.ExpiresAt.Sub(*slot.AssignedAt).Seconds())

	stored, err := env.slots.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "p-1", *stored.ProviderID)
	assert.Equal(t, 1, env.cache.invalidated)
}

func TestFeaturedService_Assign_RequiresApproved(t *testing.T) {
	for _, status := range []string{models.ProviderStatusPending, models.ProviderStatusRejected} {
		t.Run(status, func(t *testing.T) {
			env := newTestEnv(t, nil,
				provider("ok", models.ProviderStatusApproved, models.TierPro, day(1)),
				provider("bad", status, models.TierPro, day(2)),
			)
			ctx := context.Background()

			before, err := env.featuredSvc.Assign(ctx, 1, "ok", "admin")
			require.NoError(t, err)

			_, err = env.featuredSvc.Assign(ctx, 1, "bad", "admin")
			assert.ErrorIs(t, err, ErrInvalidState)

			after, err := env.slots.GetByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestFeaturedService_Assign_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 99, "p-1", "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.featuredSvc.Assign(ctx, 1, "missing", "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeaturedService_Assign_OverwritesOccupant(t *testing.T) {
	env := newTestEnv(t, nil,
		provider("a", models.ProviderStatusApproved, models.TierPro, day(1)),
		provider("b", models.ProviderStatusApproved, models.TierPro, day(2)),
	)
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "a", "admin")
	require.NoError(t, err)
	slot, err := env.featuredSvc.Assign(ctx, 1, "b", "admin")
	require.NoError(t, err)
	assert.Equal(t, "b", *slot.ProviderID)
}

func TestFeaturedService_Remove_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "p-1", "admin")
	require.NoError(t, err)

	first, err := env.featuredSvc.Remove(ctx, 1, "admin")
	require.NoError(t, err)
	second, err := env.featuredSvc.Remove(ctx, 1, "admin")
	require.NoError(t, err)

	assert.True(t, first.IsEmpty())
	assert.Nil(t, first.AssignedAt)
	assert.Nil(t, first.ExpiresAt)
	assert.Equal(t, first, second)

	_, err = env.featuredSvc.Remove(ctx, 42, "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeaturedService_Rotate_EmptyPool(t *testing.T) {
	env := newTestEnv(t, firstChooser(),
		provider("pending", models.ProviderStatusPending, models.TierPro, day(1)),
		provider("approved", models.ProviderStatusApproved, models.TierPro, day(2)),
	)
	ctx := context.Background()

	before, err := env.featuredSvc.Assign(ctx, 1, "approved", "admin")
	require.NoError(t, err)
	_, err = env.providerSvc.Reject(ctx, "approved", "admin")
	require.NoError(t, err)

	// rejection evicted the occupant; no approved providers remain
	_, err = env.featuredSvc.Rotate(ctx, 1, "admin")
	assert.ErrorIs(t, err, ErrNoEligibleProvider)

	after, err := env.slots.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, after.IsEmpty())
	assert.NotEqual(t, before, after)

	_, err = env.featuredSvc.Rotate(ctx, 2, "admin")
	assert.ErrorIs(t, err, ErrNoEligibleProvider)
	untouched, _ := env.slots.GetByID(ctx, 2)
	assert.True(t, untouched.IsEmpty())
}

func TestFeaturedService_Rotate_UsesChooser(t *testing.T) {
	var poolSize int
	chooser := ChooserFunc(func(n int) int {
		poolSize = n
		return n - 1
	})
	env := newTestEnv(t, chooser,
		provider("old", models.ProviderStatusApproved, models.TierFree, day(1)),
		provider("mid", models.ProviderStatusPending, models.TierFree, day(2)),
		provider("new", models.ProviderStatusApproved, models.TierFree, day(3)),
	)

	slot, err := env.featuredSvc.Rotate(context.Background(), 1, "admin")
	require.NoError(t, err)

	assert.Equal(t, 2, poolSize)
	assert.Equal(t, "new", *slot.ProviderID)
	assert.Equal(t, testNow, *slot.AssignedAt)
	assert.Equal(t, float64(604800), slot.ExpiresAt.Sub(*slot.AssignedAt).Seconds())
}

func TestFeaturedService_Rotate_MayReselectOccupant(t *testing.T) {
	env := newTestEnv(t, firstChooser(), provider("only", models.ProviderStatusApproved, models.TierFree, day(1)))
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 1, "only", "admin")
	require.NoError(t, err)

	slot, err := env.featuredSvc.Rotate(ctx, 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, "only", *slot.ProviderID)
}

func TestFeaturedService_Rotate_RandomChooserStaysInRange(t *testing.T) {
	env := newTestEnv(t, RandomChooser{},
		provider("a", models.ProviderStatusApproved, models.TierFree, day(1)),
		provider("b", models.ProviderStatusApproved, models.TierFree, day(2)),
		provider("c", models.ProviderStatusApproved, models.TierFree, day(3)),
	)

	for i := 0; i < 20; i++ {
		slot, err := env.featuredSvc.Rotate(context.Background(), 1, "admin")
		require.NoError(t, err)
		assert.Contains(t, []string{"a", "b", "c"}, *slot.ProviderID)
	}
}

func TestFeaturedService_Rotate_BadChooser(t *testing.T) {
	env := newTestEnv(t, ChooserFunc(func(n int) int { return n }),
		provider("a", models.ProviderStatusApproved, models.TierFree, day(1)))

	_, err := env.featuredSvc.Rotate(context.Background(), 1, "admin")
	assert.Error(t, err)

	slot, _ := env.slots.GetByID(context.Background(), 1)
	assert.True(t, slot.IsEmpty())
}

func TestFeaturedService_List(t *testing.T) {
	env := newTestEnv(t, nil, provider("p-1", models.ProviderStatusApproved, models.TierPro, day(1)))
	ctx := context.Background()

	_, err := env.featuredSvc.Assign(ctx, 3, "p-1", "admin")
	require.NoError(t, err)

	infos, err := env.featuredSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 4)

	assert.Equal(t, 1, infos[0].ID)
	assert.Nil(t, infos[0].ProviderID)

	assert.Equal(t, 3, infos[2].ID)
	require.NotNil(t, infos[2].ProviderName)
	assert.Equal(t, "Provider p-1", *infos[2].ProviderName)
	assert.False(t, infos[2].Expired)

	// expiry is informational; the occupant stays after the window closes
	env.featuredSvc.now = func() time.Time { return testNow.Add(models.FeaturedSlotDuration + time.Hour) }
	infos, err = env.featuredSvc.List(ctx)
	require.NoError(t, err)
	assert.True(t, infos[2].Expired)
	assert.Equal(t, "p-1", *infos[2].ProviderID)
}

func TestFeaturedService_CatalogueProvidersAreEligible(t *testing.T) {
	catalogue := []*models.Provider{
		provider("demo-1", models.ProviderStatusApproved, models.TierFeatured, day(1)),
		provider("demo-2", models.ProviderStatusApproved, models.TierPro, day(2)),
	}
	env := newTestEnv(t, nil)
	ctx := context.Background()
	svc := NewFeaturedService(env.slots, env.providers, catalogue, env.logs,
		ChooserFunc(func(n int) int { return n - 1 }), env.cache, env.providerSvc.log)

	slot, err := svc.Rotate(ctx, 1, "admin")
	require.NoError(t, err)
	assert.Equal(t, "demo-2", *slot.ProviderID)

	slot, err = svc.Assign(ctx, 2, "demo-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, "demo-1", *slot.ProviderID)

	infos, err := svc.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, infos[1].ProviderName)
	assert.Equal(t, "Provider demo-1", *infos[1].ProviderName)

	listingSvc := NewListingService(env.providers, env.slots, env.reviews, nil, catalogue, env.providerSvc.log)
	featured, err := listingSvc.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"demo-2", "demo-1"}, ids(featured))
}

func TestFeaturedService_StoredProviderShadowsCatalogue(t *testing.T) {
	catalogue := []*models.Provider{
		provider("shared", models.ProviderStatusApproved, models.TierFeatured, day(1)),
	}
	env := newTestEnv(t, nil, provider("shared", models.ProviderStatusRejected, models.TierFree, day(1)))
	ctx := context.Background()
	svc := NewFeaturedService(env.slots, env.providers, catalogue, env.logs, nil, env.cache, env.providerSvc.log)

	_, err := svc.Assign(ctx, 1, "shared", "admin")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Rotate(ctx, 1, "admin")
	assert.ErrorIs(t, err, ErrNoEligibleProvider)
}
