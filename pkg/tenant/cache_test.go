package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCache()
		tn := testTenant("iglesia-central", true)

		c.Set(ctx, tn.Slug, tn, time.Minute)
		got, ok := c.Get(ctx, tn.Slug)
		require.True(t, ok)
		assert.Equal(t, tn, got)
	})

	t.Run("miss", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCache()
		_, ok := c.Get(ctx, "absent")
		assert.False(t, ok)
	})

	t.Run("expiry", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCache()
		tn := testTenant("short-lived", true)

		c.Set(ctx, tn.Slug, tn, time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		_, ok := c.Get(ctx, tn.Slug)
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCache()
		tn := testTenant("gone", true)

		c.Set(ctx, tn.Slug, tn, time.Minute)
		c.Delete(ctx, tn.Slug)
		_, ok := c.Get(ctx, tn.Slug)
		assert.False(t, ok)
	})

	t.Run("evicts oldest entry at capacity", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCacheWithSize(2)

		first := testTenant("first", true)
		second := testTenant("second", true)
		third := testTenant("third", true)

		c.Set(ctx, first.Slug, first, time.Minute)
		c.Set(ctx, second.Slug, second, time.Minute)
		c.Set(ctx, third.Slug, third, time.Minute)

		_, ok := c.Get(ctx, first.Slug)
		assert.False(t, ok, "oldest entry should be evicted")
		_, ok = c.Get(ctx, second.Slug)
		assert.True(t, ok)
		_, ok = c.Get(ctx, third.Slug)
		assert.True(t, ok)
	})

	t.Run("re-set refreshes eviction order", func(t *testing.T) {
		t.Parallel()
		c := tenant.NewMemoryCacheWithSize(2)

		first := testTenant("first", true)
		second := testTenant("second", true)
		third := testTenant("third", true)

		c.Set(ctx, first.Slug, first, time.Minute)
		c.Set(ctx, second.Slug, second, time.Minute)
		c.Set(ctx, first.Slug, first, time.Minute)
		c.Set(ctx, third.Slug, third, time.Minute)

		_, ok := c.Get(ctx, second.Slug)
		assert.False(t, ok, "stalest entry should be evicted")
		_, ok = c.Get(ctx, first.Slug)
		assert.True(t, ok)
	})
}

func TestNoopCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := tenant.NewNoopCache()
	c.Set(ctx, "x", testTenant("x", true), time.Minute)
	_, ok := c.Get(ctx, "x")
	assert.False(t, ok)
}
