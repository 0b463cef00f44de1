package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// the first hit in a window starts its expiry; returns {count, pttl}
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter shares counters across instances and degrades to an
// in-memory limiter when redis is unreachable.
type RedisLimiter struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	prefix   string
	fallback *MemoryLimiter
	log      logrus.FieldLogger
}

func NewRedis(client *redis.Client, limit int, period time.Duration, log logrus.FieldLogger) *RedisLimiter {
	limit, period = normalize(limit, period)
	return &RedisLimiter{
		client:   client,
		limit:    limit,
		window:   period,
		prefix:   "crm:login:",
		fallback: NewMemory(limit, period),
		log:      log,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) Decision {
	if l.client == nil {
		return l.fallback.Allow(ctx, key)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := fixedWindow.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		if l.log != nil {
			l.log.WithError(err).Warn("rate limit store unavailable, using in-memory window")
		}
		return l.fallback.Allow(ctx, key)
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	return decide(int(res[0]), l.limit, time.Now().Add(ttl))
}
