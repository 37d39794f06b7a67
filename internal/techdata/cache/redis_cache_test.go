package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/cache"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.New(client), mr
}

func sampleSections() []domain.Section {
	return []domain.Section{
		{ID: "influent", Title: "Agua de entrada", Fixed: true, Fields: []domain.Field{
			{ID: "ph", Label: "pH", Type: domain.FieldTypeNumber, Value: 7.2},
		}},
	}
}

func sampleVersions(n int) []domain.Version {
	versions := make([]domain.Version, n)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range versions {
		versions[i] = domain.Version{
			ID:        fmt.Sprintf("v-%d", n-i),
			Label:     fmt.Sprintf("change %d", n-i),
			CreatedAt: base.Add(time.Duration(n-i) * time.Minute),
			Source:    domain.VersionSourceManual,
		}
	}
	return versions
}

func TestSaveAndLoadState(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveState(ctx, "p1", sampleSections(), sampleVersions(2)))

	sections, ok, err := c.LoadSections(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, sections, 1)
	assert.Equal(t, "influent", sections[0].ID)
	assert.Equal(t, 7.2, sections[0].Fields[0].Value)

	versions, ok, err := c.LoadVersions(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, versions, 2)
	assert.Equal(t, "v-2", versions[0].ID)
}

func TestLoadMissingProject(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sections, ok, err := c.LoadSections(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, sections)

	versions, ok, err := c.LoadVersions(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, versions)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveState(ctx, "p1", sampleSections(), sampleVersions(1)))
	require.NoError(t, c.Delete(ctx, "p1"))

	_, ok, err := c.LoadSections(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPruneVersions(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	t.Run("trims to max keeping newest", func(t *testing.T) {
		require.NoError(t, c.SaveState(ctx, "p1", sampleSections(), sampleVersions(5)))

		dropped, err := c.PruneVersions(ctx, "p1", 3)
		require.NoError(t, err)
		assert.Equal(t, 2, dropped)

		versions, ok, err := c.LoadVersions(ctx, "p1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, versions, 3)
		assert.Equal(t, "v-5", versions[0].ID)
		assert.Equal(t, "v-3", versions[2].ID)
	})

	t.Run("under the limit is a no-op", func(t *testing.T) {
		require.NoError(t, c.SaveState(ctx, "p2", sampleSections(), sampleVersions(2)))

		dropped, err := c.PruneVersions(ctx, "p2", 10)
		require.NoError(t, err)
		assert.Zero(t, dropped)
	})

	t.Run("missing project is a no-op", func(t *testing.T) {
		dropped, err := c.PruneVersions(ctx, "ghost", 3)
		require.NoError(t, err)
		assert.Zero(t, dropped)
	})
}

func TestProjectIDs(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveState(ctx, "alpha", sampleSections(), nil))
	require.NoError(t, c.SaveState(ctx, "beta", sampleSections(), nil))

	ids, err := c.ProjectIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveState(ctx, "p1", sampleSections(), sampleVersions(1)))
	mr.FastForward(8 * 24 * time.Hour)

	_, ok, err := c.LoadSections(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
