package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"watchlist/internal/screening/match"
	"watchlist/internal/screening/models"
	"watchlist/pkg/platform/circuit"
)

const (
	candidateKeyPrefix = "screening:candidates:"
	invalidateBatch    = 500
)

// CacheMetrics receives cache outcomes. *metrics.Metrics implements it.
type CacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheError(op string)
	RecordCircuitChange(name string, open bool)
}

// Cached decorates a Retriever with a Redis candidate cache. Redis failures
// never fail a search; after repeated failures the breaker sends every call
// straight to the inner retriever until a probe succeeds.
type Cached struct {
	inner   Retriever
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics CacheMetrics
}

// CachedOption configures a Cached retriever.
type CachedOption func(*Cached)

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) CachedOption {
	return func(c *Cached) { c.breaker = b }
}

// WithCacheMetrics records hits, misses and errors.
func WithCacheMetrics(m CacheMetrics) CachedOption {
	return func(c *Cached) { c.metrics = m }
}

// NewCached wraps inner with a Redis cache.
func NewCached(inner Retriever, client *redis.Client, ttl time.Duration, logger *slog.Logger, opts ...CachedOption) *Cached {
	c := &Cached{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("candidate-cache", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Cached) Search(ctx context.Context, q Query) ([]models.Subject, error) {
	key := CacheKey(q)

	if c.breaker.Allow() {
		cached, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var subjects []models.Subject
			if jsonErr := json.Unmarshal(cached, &subjects); jsonErr == nil {
				c.recordSuccess()
				if c.metrics != nil {
					c.metrics.RecordCacheHit()
				}
				return subjects, nil
			}
			c.recordFailure(ctx, "decode", errors.New("corrupt cache entry"))
		case errors.Is(err, redis.Nil):
			c.recordSuccess()
			if c.metrics != nil {
				c.metrics.RecordCacheMiss()
			}
		default:
			c.recordFailure(ctx, "get", err)
		}
	}

	subjects, err := c.inner.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if c.breaker.Allow() {
		c.store(ctx, key, subjects)
	}
	return subjects, nil
}

func (c *Cached) store(ctx context.Context, key string, subjects []models.Subject) {
	payload, err := json.Marshal(subjects)
	if err != nil {
		c.recordFailure(ctx, "encode", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, "set", err)
		return
	}
	c.recordSuccess()
}

// Invalidate drops every cached candidate set. Call it after subject state
// that a cached search may depend on changes, such as the whitelist flag.
func (c *Cached) Invalidate(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, candidateKeyPrefix+"*", invalidateBatch).Result()
		if err != nil {
			c.recordFailure(ctx, "scan", err)
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.recordFailure(ctx, "del", err)
				return err
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.recordSuccess()
	c.logger.DebugContext(ctx, "candidate cache invalidated", "keys", removed)
	return nil
}

func (c *Cached) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("candidate cache circuit closed", "breaker", c.breaker.Name())
		if c.metrics != nil {
			c.metrics.RecordCircuitChange(c.breaker.Name(), false)
		}
	}
}

func (c *Cached) recordFailure(ctx context.Context, op string, err error) {
	if c.metrics != nil {
		c.metrics.RecordCacheError(op)
	}
	c.logger.WarnContext(ctx, "candidate cache operation failed", "op", op, "error", err)
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "candidate cache circuit opened", "breaker", c.breaker.Name())
		if c.metrics != nil {
			c.metrics.RecordCircuitChange(c.breaker.Name(), true)
		}
	}
}

// CacheKey derives a stable key from the normalized query text, the filters
// (order-insensitive) and the limit.
func CacheKey(q Query) string {
	types := append([]string(nil), q.Filter.SubjectTypes...)
	sources := append([]string(nil), q.Filter.Sources...)
	sort.Strings(types)
	sort.Strings(sources)

	parts := []string{
		match.Normalize(q.Text),
		strings.Join(types, ","),
		strings.Join(sources, ","),
		strconv.FormatBool(q.Filter.ExcludeWhitelisted),
		strconv.Itoa(q.Limit),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return candidateKeyPrefix + hex.EncodeToString(sum[:])
}
