//go:build testutil

package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/testutil/testredis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	h, err := testredis.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h.Client
}

func TestRankingsRoundTripAndInvalidate(t *testing.T) {
	c := NewRankings(startRedis(t))
	ctx := context.Background()

	entries := []grading.Entry{
		{StudentID: 1, Name: "A", Summary: grading.Summary{TotalWeighted: 139.66, TotalCoef: 8, Average: 17.46, Count: 3}},
		{StudentID: 2, Name: "B"},
	}
	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "0", gen)
	for _, period := range []string{"", "1ère Période", "2e Période"} {
		stored, err := c.Set(ctx, 7, period, gen, entries)
		require.NoError(t, err)
		require.True(t, stored)
	}

	got, ok, err := c.Get(ctx, 7, "1ère Période")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entries, got)

	// one invalidation drops every period, all-periods ranking included
	require.NoError(t, c.InvalidateClass(ctx, 7))
	for _, period := range []string{"", "1ère Période", "2e Période"} {
		_, ok, err := c.Get(ctx, 7, period)
		require.NoError(t, err)
		require.False(t, ok, "period %q survived invalidation", period)
	}
}

func TestRankingsSetAfterInvalidateIsDropped(t *testing.T) {
	c := NewRankings(startRedis(t))
	ctx := context.Background()

	// a reader computes under the current generation...
	before, err := c.Generation(ctx, 3)
	require.NoError(t, err)

	// ...a grade write lands and invalidates meanwhile...
	require.NoError(t, c.InvalidateClass(ctx, 3))

	// ...so the reader's result predates the write and must not be stored
	stored, err := c.Set(ctx, 3, "", before, []grading.Entry{{StudentID: 1}})
	require.NoError(t, err)
	require.False(t, stored)
	_, ok, err := c.Get(ctx, 3, "")
	require.NoError(t, err)
	require.False(t, ok)

	after, err := c.Generation(ctx, 3)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	stored, err = c.Set(ctx, 3, "", after, []grading.Entry{{StudentID: 1}})
	require.NoError(t, err)
	require.True(t, stored)

	// other classes keep their own generation
	other, err := c.Generation(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, "0", other)
}
