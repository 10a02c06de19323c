package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/project-hub/internal/config"
)

// bucketScript refills continuously at rate tokens per millisecond and
// takes one token if a whole one is available.  The bucket lives in a
// hash {t = tokens, ts = last update}.  Returns {allowed, tokens left,
// milliseconds until the next token}.
var bucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local now = tonumber(ARGV[1])

local t = tonumber(redis.call('HGET', KEYS[1], 't'))
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if t == nil or ts == nil then
  t = capacity
  ts = now
end
if now > ts then
  t = math.min(capacity, t + (now - ts) * rate)
  ts = now
end

local allowed = 0
local wait = 0
if t >= 1 then
  allowed = 1
  t = t - 1
else
  wait = math.ceil((1 - t) / rate)
end

redis.call('HSET', KEYS[1], 't', tostring(t), 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {allowed, math.floor(t), wait}
`)

// NewTokenBucket limits how often one client may hit the credential
// endpoints.  With limiting disabled or no Redis client it is a
// pass-through, and a Redis error lets the request proceed.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	rate := float64(cfg.RefillTokens) / float64(cfg.RefillInterval.Milliseconds())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, rate, cfg.TTL.Milliseconds()).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: %s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			retry := int(math.Ceil(float64(res[2]) / 1000))
			h.Set("Retry-After", strconv.Itoa(retry))
			if cfg.Debug {
				c.Logger().Infof("ratelimit: blocked %s for %ds", key, retry)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "too many attempts, try again later",
				"retry_after": retry,
			})
		}
	}
}

// buildRateKey scopes the bucket.  Credential endpoints are hit before an
// identity exists, so the client IP is the primary key; "route" and
// "ip_route" (the default) add the method and path, "ip" shares one bucket
// across all limited endpoints.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Request().URL.Path

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	default:
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}
