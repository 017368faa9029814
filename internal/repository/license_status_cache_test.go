package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/converter-service/internal/domain"
)

func newCacheWithMiniredis(t *testing.T, ttl time.Duration) (LicenseStatusCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLicenseStatusCache(client, ttl), mr
}

func TestLicenseStatusCacheRoundtrip(t *testing.T) {
	cache, _ := newCacheWithMiniredis(t, 5*time.Minute)
	ctx := context.Background()

	checkedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Set(ctx, "lic_1", LicenseStatusEntry{Status: domain.LicenseStatusActive, CheckedAt: checkedAt}))

	entry, ok := cache.Get(ctx, "lic_1")
	require.True(t, ok)
	assert.Equal(t, domain.LicenseStatusActive, entry.Status)
	assert.True(t, entry.CheckedAt.Equal(checkedAt))

	_, ok = cache.Get(ctx, "lic_other")
	assert.False(t, ok)
}

func TestLicenseStatusCacheExpires(t *testing.T) {
	cache, mr := newCacheWithMiniredis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "lic_1", LicenseStatusEntry{Status: domain.LicenseStatusCanceled, CheckedAt: time.Now()}))

	_, ok := cache.Get(ctx, "lic_1")
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok = cache.Get(ctx, "lic_1")
	assert.False(t, ok)
}

func TestLicenseStatusCacheInvalidate(t *testing.T) {
	cache, _ := newCacheWithMiniredis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "lic_1", LicenseStatusEntry{Status: domain.LicenseStatusActive, CheckedAt: time.Now()}))
	require.NoError(t, cache.Invalidate(ctx, "lic_1"))

	_, ok := cache.Get(ctx, "lic_1")
	assert.False(t, ok)
}

func TestLicenseStatusCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mr := newCacheWithMiniredis(t, time.Minute)

	require.NoError(t, mr.Set(licenseStatusKeyPrefix+"lic_1", "{not json"))

	_, ok := cache.Get(context.Background(), "lic_1")
	assert.False(t, ok)
}
