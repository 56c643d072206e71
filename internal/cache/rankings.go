// Package cache keeps computed class rankings in Redis. Entries never expire
// on their own: every grade write and class membership change invalidates
// the whole class. A nil *Rankings is a valid, always-missing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Spok95/gestion-scolaire/internal/grading"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
)

type Rankings struct {
	rdb *redis.Client
}

func NewRankings(rdb *redis.Client) *Rankings {
	if rdb == nil {
		return nil
	}
	return &Rankings{rdb: rdb}
}

// classKey holds one hash per class, one field per period. The hash tag
// keeps it in the same slot as its generation counter.
func classKey(classID int64) string {
	return "ranking:{class:" + strconv.FormatInt(classID, 10) + "}"
}

func genKey(classID int64) string {
	return classKey(classID) + ":gen"
}

// setIfGen stores a field only while the class generation still matches the
// one read before the ranking was computed.
var setIfGen = redis.NewScript(`
local g = redis.call('GET', KEYS[1])
if not g then g = '0' end
if g ~= ARGV[1] then return 0 end
redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// Get returns the cached entries for (class, period); ok is false on a miss.
func (c *Rankings) Get(ctx context.Context, classID int64, period string) ([]grading.Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.HGet(ctx, classKey(classID), period).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RankingCache.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.RankingCache.WithLabelValues("error").Inc()
		return nil, false, err
	}
	var entries []grading.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		metrics.RankingCache.WithLabelValues("error").Inc()
		return nil, false, err
	}
	metrics.RankingCache.WithLabelValues("hit").Inc()
	return entries, true, nil
}

// Generation reads the class generation. Call it before loading the data a
// ranking is computed from and hand the value to Set.
func (c *Rankings) Generation(ctx context.Context, classID int64) (string, error) {
	if c == nil {
		return "", nil
	}
	g, err := c.rdb.Get(ctx, genKey(classID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return g, err
}

// Set stores entries computed under generation gen. stored is false when
// the class was invalidated in between; the entries are then dropped.
func (c *Rankings) Set(ctx context.Context, classID int64, period, gen string, entries []grading.Entry) (stored bool, err error) {
	if c == nil {
		return false, nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return false, err
	}
	n, err := setIfGen.Run(ctx, c.rdb, []string{genKey(classID), classKey(classID)}, gen, period, raw).Int()
	if err != nil {
		return false, err
	}
	if n == 0 {
		metrics.RankingCache.WithLabelValues("stale").Inc()
	}
	return n == 1, nil
}

// InvalidateClass drops every period of a class, the all-periods ranking
// included, and bumps its generation so in-flight computations are not
// stored.
func (c *Rankings) InvalidateClass(ctx context.Context, classID int64) error {
	if c == nil {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(classID))
		p.Del(ctx, classKey(classID))
		return nil
	})
	return err
}
