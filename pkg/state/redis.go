package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimScript sets KEYS[1] to ARGV[1] (unix ms) unless it already holds a
// timestamp younger than ARGV[2] ms. Comparing stored timestamps instead of
// relying on key expiry keeps Claim correct when callers supply their own clock.
var claimScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and (tonumber(ARGV[1]) - tonumber(cur)) < tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// releaseScript deletes KEYS[1] only while it holds the claim ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Addr is the Redis server address ("host:port").
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB is the Redis logical database.
	DB int

	// Prefix is prepended to every key.
	// Default: "switchboard:"
	Prefix string

	// CounterTTL bounds how long an untouched counter survives. Zero keeps
	// counters until they are reset.
	CounterTTL time.Duration
}

// RedisStore implements Store on Redis so counters and cooldowns are shared
// by every service instance.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	counterTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(rdb, cfg.Prefix, cfg.CounterTTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, counterTTL time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "switchboard:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, counterTTL: counterTTL}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Increment atomically increments the counter at key.
func (r *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	k := r.key(key)

	if r.counterTTL <= 0 {
		n, err := r.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, fmt.Errorf("redis incr %s: %w", key, err)
		}
		return n, nil
	}

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, r.counterTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Get returns the counter at key, or zero if absent.
func (r *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, r.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return n, nil
}

// Reset deletes key.
func (r *RedisStore) Reset(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Claim atomically records now under key unless a younger claim exists.
func (r *RedisStore) Claim(ctx context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	ttlMs := ttl.Milliseconds()
	if ttlMs < 1 {
		ttlMs = 1
	}

	n, err := claimScript.Run(ctx, r.rdb, []string{r.key(key)}, now.UnixMilli(), ttlMs).Int64()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", key, err)
	}
	return n == 1, nil
}

// ReleaseClaim atomically deletes key if it still holds the claim made at at.
// Claims are stored with millisecond precision.
func (r *RedisStore) ReleaseClaim(ctx context.Context, key string, at time.Time) (bool, error) {
	n, err := releaseScript.Run(ctx, r.rdb, []string{r.key(key)}, strconv.FormatInt(at.UnixMilli(), 10)).Int64()
	if err != nil {
		return false, fmt.Errorf("redis release %s: %w", key, err)
	}
	return n == 1, nil
}

// ClaimedAt returns the timestamp of the current claim on key.
func (r *RedisStore) ClaimedAt(ctx context.Context, key string) (time.Time, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed claim at %s: %w", key, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Ping verifies the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
