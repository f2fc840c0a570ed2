package stories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	candidateKeyPrefix = "stories:published:"
	generationKey      = "stories:published-generation"
)

// setIfGeneration stores KEYS[2] only while KEYS[1] still holds the
// generation the pool was fetched under.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// CandidateCache keeps recently fetched candidate pools in Redis, keyed by
// generation and pre-filter. Invalidate bumps the generation, so a pool
// fetched before a status change can neither be read nor written back
// afterwards. A nil *CandidateCache is valid and never hits.
type CandidateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCandidateCache(client *redis.Client, ttl time.Duration, log logger.Logger) *CandidateCache {
	return &CandidateCache{client: client, ttl: ttl, logger: log}
}

// CandidateKey returns the cache key for a filter under generation gen.
// Values are escaped so a separator inside a university name cannot collide
// with another filter.
func CandidateKey(gen int64, f CandidateFilter) string {
	return candidateKeyPrefix + strconv.FormatInt(gen, 10) + ":" +
		url.QueryEscape(f.University) + "|" + url.QueryEscape(f.Faculty)
}

func (c *CandidateCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached pool and the generation it was looked up under.
// Pass that generation to Set when filling the cache after a miss. Redis
// failures and undecodable entries count as misses; a negative generation
// means the cache must not be filled.
func (c *CandidateCache) Get(ctx context.Context, f CandidateFilter) ([]models.Story, int64, bool) {
	if c == nil || c.client == nil {
		return nil, -1, false
	}

	gen, err := c.generation(ctx)
	if err != nil {
		metrics.CandidateCache.WithLabelValues("error").Inc()
		c.logger.Warn("candidate cache generation read failed", map[string]interface{}{"error": err})
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, CandidateKey(gen, f)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			metrics.CandidateCache.WithLabelValues("error").Inc()
			c.logger.Warn("candidate cache read failed", map[string]interface{}{"error": err})
		} else {
			metrics.CandidateCache.WithLabelValues("miss").Inc()
		}
		return nil, gen, false
	}

	var pool []models.Story
	if err := json.Unmarshal(raw, &pool); err != nil {
		metrics.CandidateCache.WithLabelValues("error").Inc()
		c.logger.Warn("candidate cache entry undecodable", map[string]interface{}{"error": err})
		return nil, gen, false
	}

	metrics.CandidateCache.WithLabelValues("hit").Inc()
	return pool, gen, true
}

// Set stores a pool fetched under generation gen. The write is dropped when
// the generation has moved on since. It reports whether the pool was stored;
// failures are logged and otherwise ignored.
func (c *CandidateCache) Set(ctx context.Context, f CandidateFilter, gen int64, pool []models.Story) bool {
	if c == nil || c.client == nil || gen < 0 {
		return false
	}

	data, err := json.Marshal(pool)
	if err != nil {
		metrics.CandidateCache.WithLabelValues("error").Inc()
		c.logger.Warn("candidate cache entry unencodable", map[string]interface{}{"error": err})
		return false
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{generationKey, CandidateKey(gen, f)},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		metrics.CandidateCache.WithLabelValues("error").Inc()
		c.logger.Warn("candidate cache write failed", map[string]interface{}{"error": err})
		return false
	}
	if stored == 0 {
		metrics.CandidateCache.WithLabelValues("stale").Inc()
		c.logger.Debug("candidate cache write skipped, generation moved", map[string]interface{}{"generation": gen})
		return false
	}
	return true
}

// Invalidate bumps the generation, which orphans every cached pool and
// rejects fills still in flight. Orphaned entries are then deleted; that
// cleanup is best effort since they also expire on their own.
func (c *CandidateCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return fmt.Errorf("bump candidate cache generation: %w", err)
	}

	deleted, err := c.deleteEntries(ctx)
	if err != nil {
		c.logger.Warn("candidate cache cleanup failed", map[string]interface{}{
			"generation": gen,
			"error":      err,
		})
	}

	c.logger.Debug("candidate cache invalidated", map[string]interface{}{
		"generation": gen,
		"keys":       deleted,
	})
	return nil
}

func (c *CandidateCache) deleteEntries(ctx context.Context) (int, error) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, candidateKeyPrefix+"*", 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("scan candidate cache: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("delete candidate cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
