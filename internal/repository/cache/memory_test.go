package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/route-optimization-engine/internal/domain"
	"github.com/route-optimization-engine/internal/repository/cache"
)

func TestMemoryCache_SetGet(t *testing.T) {
	repo := cache.NewMemoryCache()
	ctx := context.Background()

	data, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, repo.Set(ctx, "key", []byte("value"), time.Minute))

	data, err = repo.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), data)

	require.NoError(t, repo.Delete(ctx, "key"))

	data, err = repo.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	repo := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short-lived", []byte("value"), 10*time.Millisecond))
	require.NoError(t, repo.Set(ctx, "permanent", []byte("value"), 0))

	time.Sleep(30 * time.Millisecond)

	data, err := repo.Get(ctx, "short-lived")
	require.NoError(t, err)
	assert.Nil(t, data)

	exists, err := repo.Exists(ctx, "short-lived")
	require.NoError(t, err)
	assert.False(t, exists)

	// Zero TTL means no expiry
	data, err = repo.Get(ctx, "permanent")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), data)
}

func TestMemoryCache_ParkingPOIs(t *testing.T) {
	repo := cache.NewMemoryCache()
	ctx := context.Background()

	got, err := repo.GetParkingPOIs(ctx, 48.7833, 9.1817, 600)
	require.NoError(t, err)
	assert.Nil(t, got)

	candidates := []*domain.ParkingCandidate{
		{
			Location:   domain.GeoPoint{Lat: 48.7843, Lon: 9.1820},
			Source:     domain.ParkingSourceLivePOI,
			Name:       "Parkhaus Mitte",
			DistanceKm: 0.12,
		},
	}

	require.NoError(t, repo.SetParkingPOIs(ctx, 48.7833, 9.1817, 600, candidates, time.Minute))

	got, err = repo.GetParkingPOIs(ctx, 48.7833, 9.1817, 600)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Parkhaus Mitte", got[0].Name)
}

func TestMemoryCache_ProbeStatus(t *testing.T) {
	repo := cache.NewMemoryCache()
	ctx := context.Background()

	status, err := repo.GetProbeStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, status)

	require.NoError(t, repo.SetProbeStatus(ctx, true, time.Minute))

	status, err = repo.GetProbeStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, *status)
}
