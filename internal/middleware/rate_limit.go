package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/recipe-recommender/backend/internal/api"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimitResult is the outcome of one rate limit check
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether the client identified by key may make a request
type Limiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// RedisLimiter counts requests per fixed window in redis, so every API
// replica shares the same budget
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter creates a new redis backed limiter
func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Allow increments the counter of the current window and checks it
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, err
	}

	count := int(incrCmd.Val())
	return RateLimitResult{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

// LocalLimiter keeps a token bucket per client in process memory. It is used
// when no redis is configured. Buckets idle for a whole window are full again
// and get evicted.
type LocalLimiter struct {
	config    RateLimitConfig
	every     rate.Limit
	now       func() time.Time
	mu        sync.Mutex
	limiters  map[string]*localBucket
	lastSweep time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a limiter refilling Limit tokens per Window
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		config:   config,
		every:    rate.Every(config.Window / time.Duration(max(config.Limit, 1))),
		now:      time.Now,
		limiters: make(map[string]*localBucket),
	}
}

// Allow takes one token from the client's bucket
func (l *LocalLimiter) Allow(_ context.Context, key string) (RateLimitResult, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	bucket, ok := l.limiters[key]
	if !ok {
		bucket = &localBucket{limiter: rate.NewLimiter(l.every, l.config.Limit)}
		l.limiters[key] = bucket
	}
	bucket.lastSeen = now
	l.mu.Unlock()

	allowed := bucket.limiter.AllowN(now, 1)
	tokens := bucket.limiter.TokensAt(now)

	reset := now
	if tokens < 1 && l.every > 0 {
		reset = now.Add(time.Duration((1 - tokens) / float64(l.every) * float64(time.Second)))
	}

	return RateLimitResult{
		Allowed:   allowed,
		Limit:     l.config.Limit,
		Remaining: max(int(math.Floor(tokens)), 0),
		Reset:     reset,
	}, nil
}

// sweep drops buckets idle for longer than the window, at most once per
// window. Callers hold mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.Window {
		return
	}
	l.lastSweep = now
	for key, bucket := range l.limiters {
		if now.Sub(bucket.lastSeen) > l.config.Window {
			delete(l.limiters, key)
		}
	}
}

// RateLimit rejects clients that exceed the limiter's budget with a 429
// envelope. Limiter failures are logged and the request is let through.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("Rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			metrics.RateLimitedTotal.Inc()
			retryAfter := int(math.Ceil(time.Until(result.Reset).Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			api.AbortWithError(c, http.StatusTooManyRequests, "Request was throttled.")
			return
		}

		c.Next()
	}
}
