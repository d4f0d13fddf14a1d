package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// bucketScript refills and takes one token atomically. State is a redis hash
// of {tokens, ts}; refill is computed from redis server time so every
// instance of the service shares one clock.
const bucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
  ts = now
else
  local delta = now - ts
  if delta < 0 then
    delta = 0
  end
  local refill = (delta / 1000) * rate
  tokens = math.min(burst, tokens + refill)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", ts)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, math.floor(tokens), ts}
`

// TokenBucket is a redis-backed continuous-refill rate limiter. The stream
// ingestion endpoint keys buckets per song and per source.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

// RateLimitResult reports one Allow decision plus the headers-worth of
// bucket state the HTTP layer exposes on 429s.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// NewTokenBucket returns nil when no redis client is configured; callers
// treat a nil bucket as limiting disabled.
func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(bucketScript),
	}
}

// Allow consumes one token from the bucket at key. The bucket refills
// continuously at rate tokens/second up to burst.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	denied := &RateLimitResult{Allowed: false}

	switch {
	case t == nil || t.client == nil:
		return denied, errors.New("rate limiter not configured")
	case key == "":
		return denied, errors.New("rate limiter key is empty")
	case rate <= 0:
		return denied, errors.New("rate limiter rate must be positive")
	case burst <= 0:
		return denied, errors.New("rate limiter burst must be positive")
	}

	ttl := bucketTTL(rate, burst)

	res, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return denied, err
	}
	if len(res) < 3 {
		return denied, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	allowed := scriptInt(res[0]) == 1
	result := &RateLimitResult{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(scriptInt(res[1])),
	}
	if !allowed {
		// Time until one token refills.
		result.RetryAfter = time.Duration(float64(time.Second) / rate)
	}

	return result, nil
}

// bucketTTL keeps idle buckets around for two full refill cycles so a
// returning caller starts from accumulated state, not a fresh burst.
func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil((float64(burst) / rate) * 2)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

func scriptInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
