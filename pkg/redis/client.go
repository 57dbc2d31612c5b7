package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by Get when the key does not exist
const Nil = redis.Nil

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key patterns
const (
	KeyPollVoters  = "feedback:poll:%s:voters"    // set of respondent ids that answered a poll
	KeyReport      = "feedback:report:%s"         // cached aggregate report by request hash
	KeyReportAll   = "feedback:report:*"          // every cached report
	KeyReportGen   = "feedback:report_generation" // bumped on every report invalidation
	KeySubmitLimit = "feedback:ratelimit:%s:%s"   // submissions per respondent per window
)

// TTL constants
const (
	TTLPollVoters  = 7 * 24 * time.Hour // voters set outlives most poll windows
	TTLReport      = 5 * time.Minute
	TTLSubmitLimit = time.Hour
	TTLReportGen   = 30 * 24 * time.Hour
)

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// observe logs a command at debug, or at info when it failed
func (c *Client) observe(op, key string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", time.Since(start)))
	if err != nil && err != redis.Nil {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.observe("redis_get", key, start, err, zap.Bool("hit", err == nil))
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err)
	return err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	first := ""
	if len(keys) > 0 {
		first = keys[0]
	}
	c.observe("redis_del", first, start, err, zap.Int("keys", len(keys)))
	return err
}

// SAdd adds members to a set and refreshes its TTL
func (c *Client) SAdd(ctx context.Context, key string, ttl time.Duration, members ...interface{}) error {
	start := time.Now()
	pipe := c.rdb.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	c.observe("redis_sadd", key, start, err, zap.Int("members", len(members)))
	return err
}

// SIsMember reports whether member belongs to the set at key
func (c *Client) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SIsMember(ctx, key, member).Result()
	c.observe("redis_sismember", key, start, err, zap.Bool("result", ok))
	return ok, err
}

// IncrWithExpire increments a counter, setting its TTL when the key is new
func (c *Client) IncrWithExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	v, err := c.rdb.Incr(ctx, key).Result()
	if err == nil && v == 1 {
		err = c.rdb.Expire(ctx, key, ttl).Err()
	}
	c.observe("redis_incr", key, start, err, zap.Int64("value", v))
	return v, err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.observe("redis_ping", "", start, err)
	return err
}

// InvalidatePattern removes keys matching a pattern. It walks the keyspace
// with SCAN so a large keyspace never blocks the server.
func (c *Client) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	start := time.Now()
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.observe("redis_invalidate", pattern, start, err)
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.observe("redis_invalidate", pattern, start, err)
				return deleted, err
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.observe("redis_invalidate", pattern, start, nil, zap.Int("deleted", deleted))
	return deleted, nil
}

// prefixForLog returns a safe prefix of a key to avoid logging PII
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
