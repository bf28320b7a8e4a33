package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logger"
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

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

type limitStore interface {
	take(ctx context.Context, key string, cfg RateLimitConfig) (Decision, error)
}

// RateLimiter limits requests per user. It counts in Redis when a client is
// given and falls back to in-process token buckets otherwise.
type RateLimiter struct {
	store  limitStore
	config RateLimitConfig
	log    *logger.Logger
}

// NewRateLimiter creates a new rate limiter instance. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, log *logger.Logger) *RateLimiter {
	var store limitStore
	if redisClient != nil {
		store = &redisStore{client: redisClient}
	} else {
		store = newLocalStore()
	}
	return &RateLimiter{
		store:  store,
		config: config,
		log:    log.With("component", "RateLimiter", "prefix", config.KeyPrefix),
	}
}

// NewRecipeCreationRateLimiter limits recipe creation per user per hour
func NewRecipeCreationRateLimiter(redisClient *redis.Client, limit int, log *logger.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_creation",
	}, log)
}

// NewRecipeModificationRateLimiter limits modifications per recipe per user per hour
func NewRecipeModificationRateLimiter(redisClient *redis.Client, limit int, log *logger.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_modification",
	}, log)
}

// IsAllowed records a request for key and reports whether it fits the limit
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (Decision, error) {
	return rl.store.take(ctx, key, rl.config)
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "user not authenticated"})
			return
		}
		rl.enforce(c, userID.String(), "requests")
	}
}

// PerRecipeRateLimitMiddleware creates a middleware for per-recipe rate limiting.
// Requests whose :id is not a uuid are passed on uncounted; the handler
// answers them with 404.
func (rl *RateLimiter) PerRecipeRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "user not authenticated"})
			return
		}

		recipeID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Next()
			return
		}

		rl.enforce(c, userID.String()+":"+recipeID.String(), "modifications per recipe")
	}
}

func (rl *RateLimiter) enforce(c *gin.Context, key, what string) {
	decision, err := rl.IsAllowed(c.Request.Context(), key)
	if err != nil {
		rl.log.Warn("rate limit check failed, allowing request", "error", err)
		c.Header("X-RateLimit-Error", "rate limit check failed")
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

	if !decision.Allowed {
		retryAfter := int(time.Until(decision.Reset).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"message":     fmt.Sprintf("You have exceeded the rate limit of %d %s per %v", rl.config.Limit, what, rl.config.Window),
			"retry_after": retryAfter,
		})
		return
	}

	c.Next()
}

// redisStore keeps a fixed-window counter per key
type redisStore struct {
	client *redis.Client
}

func (s *redisStore) take(ctx context.Context, key string, cfg RateLimitConfig) (Decision, error) {
	windowStart := time.Now().Truncate(cfg.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", cfg.KeyPrefix, key, windowStart.Unix())

	pipe := s.client.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	remaining := cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= cfg.Limit,
		Remaining: remaining,
		Reset:     windowStart.Add(cfg.Window),
	}, nil
}

// maxLocalKeys caps the number of buckets a localStore holds.
const maxLocalKeys = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localStore keeps a token bucket per key, refilled at Limit per Window.
// A bucket idle for a whole window is full again and is dropped.
type localStore struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	lastSweep time.Time
	maxKeys   int
	now       func() time.Time
}

func newLocalStore() *localStore {
	return &localStore{
		entries: make(map[string]*localEntry),
		maxKeys: maxLocalKeys,
		now:     time.Now,
	}
}

func (s *localStore) take(_ context.Context, key string, cfg RateLimitConfig) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= cfg.Window {
		s.sweep(now, cfg.Window)
	}

	entry, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= s.maxKeys {
			s.sweep(now, cfg.Window)
			if len(s.entries) >= s.maxKeys {
				s.evictOldest()
			}
		}
		entry = &localEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(cfg.Limit)/cfg.Window.Seconds()), cfg.Limit),
		}
		s.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	// time until the next whole token is available
	perToken := time.Duration(float64(cfg.Window) / float64(cfg.Limit))
	reset := now
	if tokens < 1 {
		reset = now.Add(time.Duration((1 - tokens) * float64(perToken)))
	}
	return Decision{Allowed: allowed, Remaining: remaining, Reset: reset}, nil
}

func (s *localStore) sweep(now time.Time, window time.Duration) {
	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) >= window {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *localStore) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range s.entries {
		if oldestKey == "" || entry.lastSeen.Before(oldest) {
			oldestKey, oldest = key, entry.lastSeen
		}
	}
	delete(s.entries, oldestKey)
}

func (s *localStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
