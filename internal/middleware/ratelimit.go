package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theatre-booking/internal/config"
)

// bucketScript refills continuously at ARGV[3] tokens per millisecond and
// takes one token if it can.  Returns {allowed, remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 't'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if tokens == nil or stamp == nil then
	tokens = capacity
	stamp = now
end
tokens = math.min(capacity, tokens + math.max(0, now - stamp) * rate)

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 't', tostring(tokens), 'ts', tostring(now))
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))
return { allowed, math.floor(tokens), wait }
`)

var errBucketResult = errors.New("ratelimit: unexpected script result")

type bucketDecision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

// takeToken runs one bucket step for key at now.
func takeToken(ctx context.Context, rdb redis.Scripter, cfg config.RateLimitConfig, key string, now time.Time) (bucketDecision, error) {
	interval := cfg.RefillInterval.Milliseconds()
	if interval <= 0 {
		interval = 1000
	}
	perMs := float64(cfg.RefillTokens) / float64(interval)
	ttl := int64(math.Ceil(cfg.TTL.Seconds()))
	res, err := bucketScript.Run(ctx, rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		strconv.FormatFloat(perMs, 'f', -1, 64),
		ttl,
	).Int64Slice()
	if err != nil {
		return bucketDecision{}, err
	}
	if len(res) != 3 {
		return bucketDecision{}, errBucketResult
	}
	return bucketDecision{
		allowed:    res[0] == 1,
		remaining:  res[1],
		retryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key with a Redis token bucket.  The
// limiter fails open: when Redis is unavailable requests pass.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := buildRateKey(cfg, c)

			d, err := takeToken(ctx, rdb, cfg, key, time.Now())
			if err != nil {
				if cfg.Debug {
					zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("ratelimit: redis error")
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if d.allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.retryAfter.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				zerolog.Ctx(ctx).Info().Str("key", key).Dur("retry_after", d.retryAfter).Msg("ratelimit: blocked")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"code":        "too_many_requests",
				"retry_after": secs,
			})
		}
	}
}

// buildRateKey joins the parts named by cfg.KeyStrategy, an underscore
// separated combination of ip, user and route.  Unknown parts are
// ignored; an empty result falls back to ip_user_route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	values := map[string]string{
		"ip":    c.RealIP(),
		"user":  userKey(c),
		"route": c.Request().Method + " " + c.Path(),
	}
	if values["ip"] == "" {
		values["ip"] = "unknown"
	}

	build := func(strategy string) []string {
		var parts []string
		for _, name := range strings.Split(strings.ToLower(strategy), "_") {
			if v, ok := values[name]; ok {
				parts = append(parts, name, v)
			}
		}
		return parts
	}
	parts := build(cfg.KeyStrategy)
	if len(parts) == 0 {
		parts = build("ip_user_route")
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
