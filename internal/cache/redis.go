package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/anonchat/internal/config"
	"github.com/oggyb/anonchat/internal/domain"
)

const keyMatches = "stats:matches"

// formTTL bounds how long a half-finished /edit prompt is remembered.
const formTTL = 10 * time.Minute

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error { return c.Client.Close() }

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns "" with a nil error on a cache miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForFlood generates the per-user message counter key.
func (c *RedisCache) KeyForFlood(id domain.UserID) string {
	return fmt.Sprintf("flood:%d", int64(id))
}

// KeyForInvitee marks a user that has already been credited to an inviter.
func (c *RedisCache) KeyForInvitee(id domain.UserID) string {
	return fmt.Sprintf("ref:invitee:%d", int64(id))
}

// KeyForForm holds the profile field a user is currently being asked for.
func (c *RedisCache) KeyForForm(id domain.UserID) string {
	return fmt.Sprintf("form:%d", int64(id))
}

// Allow counts one message for id and reports whether it is within limit for
// the current fixed window. The window starts at the first message. INCR and
// TTL go in one round trip; a counter found without expiry (first hit, or an
// earlier EXPIRE that failed) gets one, so a user can never be stuck over the
// limit.
func (c *RedisCache) Allow(ctx context.Context, id domain.UserID, limit int, window time.Duration) (bool, error) {
	key := c.KeyForFlood(id)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := c.Client.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.TTL(ctx, key)
		return nil
	}); err != nil {
		return true, err
	}

	n := incr.Val()
	if ttl.Val() < 0 {
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return n <= int64(limit), err
		}
	}
	return n <= int64(limit), nil
}

// MarkInvited returns true only the first time it is called for id.
func (c *RedisCache) MarkInvited(ctx context.Context, id domain.UserID) (bool, error) {
	return c.Client.SetNX(ctx, c.KeyForInvitee(id), 1, 0).Result()
}

// SetForm remembers which field id is editing.
func (c *RedisCache) SetForm(ctx context.Context, id domain.UserID, field domain.Field) error {
	return c.Set(ctx, c.KeyForForm(id), string(field), formTTL)
}

// Form returns the field id is editing, "" when none.
func (c *RedisCache) Form(ctx context.Context, id domain.UserID) (domain.Field, error) {
	v, err := c.Get(ctx, c.KeyForForm(id))
	return domain.Field(v), err
}

func (c *RedisCache) ClearForm(ctx context.Context, id domain.UserID) error {
	return c.Del(ctx, c.KeyForForm(id))
}

// IncrMatches bumps the lifetime match counter.
func (c *RedisCache) IncrMatches(ctx context.Context) (int64, error) {
	return c.Client.Incr(ctx, keyMatches).Result()
}

// Matches reads the lifetime match counter; a missing key counts as zero.
func (c *RedisCache) Matches(ctx context.Context) (int64, error) {
	val, err := c.Get(ctx, keyMatches)
	if err != nil || val == "" {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}
