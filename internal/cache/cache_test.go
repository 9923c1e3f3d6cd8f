package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser/internal/models"
)

func sampleEntry(fetchedAt time.Time) Entry {
	return Entry{
		Listings: []models.Listing{
			{ID: "1", Title: "Flat", Price: 100, Images: []string{"a.jpg"}, Amenities: []any{"Pool"}},
		},
		FetchedAt: fetchedAt,
	}
}

func TestEntry_Fresh(t *testing.T) {
	now := time.Now()
	assert.True(t, sampleEntry(now.Add(-4*time.Minute)).Fresh(now, 5*time.Minute))
	assert.False(t, sampleEntry(now.Add(-5*time.Minute)).Fresh(now, 5*time.Minute))
}

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(10 * time.Minute)
	m.now = func() time.Time { return now }

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", sampleEntry(now)))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", got.Listings[0].ID)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_ExpiresAfterRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(10 * time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", sampleEntry(now)))
	now = now.Add(9 * time.Minute)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedis_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	c := NewRedis(client, 10*time.Minute)
	fetched := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	_, ok, err := c.Get(ctx, "properties?bedrooms=2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "properties?bedrooms=2", sampleEntry(fetched)))
	assert.True(t, mr.Exists(keyPrefix+"properties?bedrooms=2"))
	assert.Equal(t, 10*time.Minute, mr.TTL(keyPrefix+"properties?bedrooms=2"))

	got, ok, err := c.Get(ctx, "properties?bedrooms=2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.FetchedAt.Equal(fetched))
	require.Len(t, got.Listings, 1)
	assert.Equal(t, "Flat", got.Listings[0].Title)
	assert.Equal(t, []any{"Pool"}, got.Listings[0].Amenities)

	mr.FastForward(11 * time.Minute)
	_, ok, err = c.Get(ctx, "properties?bedrooms=2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	c := NewRedis(client, time.Minute)

	require.NoError(t, c.Set(ctx, "k", sampleEntry(time.Now())))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"k", "{not json"))

	_, _, err := NewRedis(client, time.Minute).Get(ctx, "k")
	assert.ErrorContains(t, err, "decode cache entry")
}

func TestRedis_ServerDown(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	_, _, err := NewRedis(client, time.Minute).Get(context.Background(), "k")
	assert.Error(t, err)
}
