package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultCountKey      = "problempad:problems:count"
	DefaultGenerationKey = "problempad:problems:count:gen"
	DefaultTTL           = 30 * time.Second
	defaultTimeout       = 500 * time.Millisecond
)

// CountCache stores the number of problems between writes.
//
// Every Invalidate starts a new generation. A count read from the store is
// only cached under the generation that was current before the read, so a
// slow reader cannot put back a count that a later write already replaced.
type CountCache interface {
	// Get returns the cached count; ok is false on a miss. gen is the
	// generation to hand to Set after counting the store.
	Get(ctx context.Context) (count, gen int64, ok bool, err error)
	// Set caches count if gen is still current and reports whether it did.
	Set(ctx context.Context, gen, count int64) (bool, error)
	Invalidate(ctx context.Context) error
}

// KEYS[1] count, KEYS[2] generation; ARGV[1] generation, ARGV[2] count,
// ARGV[3] ttl in milliseconds.
var setIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCountCache keeps the count and its generation under two Redis keys.
type RedisCountCache struct {
	client  *redis.Client
	key     string
	genKey  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisCountCache connects to addr and verifies the connection.
func NewRedisCountCache(addr string, ttl time.Duration) (*RedisCountCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("addr cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		MaxRetries:  1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisCountCacheWithClient(client, ttl), nil
}

// NewRedisCountCacheWithClient wraps an existing client.
func NewRedisCountCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCountCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCountCache{
		client:  client,
		key:     DefaultCountKey,
		genKey:  DefaultGenerationKey,
		ttl:     ttl,
		timeout: defaultTimeout,
	}
}

func (c *RedisCountCache) Get(ctx context.Context) (int64, int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	values, err := c.client.MGet(ctx, c.key, c.genKey).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("get cached count: %w", err)
	}

	gen, _, err := parseInt(values[1])
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse count generation: %w", err)
	}
	count, ok, err := parseInt(values[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse cached count: %w", err)
	}
	return count, gen, ok, nil
}

func (c *RedisCountCache) Set(ctx context.Context, gen, count int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stored, err := setIfCurrent.Run(ctx, c.client, []string{c.key, c.genKey}, gen, count, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("set cached count: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the cached count and moves to a new generation.
func (c *RedisCountCache) Invalidate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate cached count: %w", err)
	}
	return nil
}

func parseInt(value interface{}) (int64, bool, error) {
	if value == nil {
		return 0, false, nil
	}
	s, ok := value.(string)
	if !ok {
		return 0, false, fmt.Errorf("unexpected value %T", value)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// Close releases the underlying client.
func (c *RedisCountCache) Close() error {
	return c.client.Close()
}
