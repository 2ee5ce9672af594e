// Package redis wraps go-redis with a small json cache used by services.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
	gredis "github.com/Laisky/go-redis/v2"
	"github.com/redis/go-redis/v9"
)

// DB is a wrapper for go-redis
type DB struct {
	cli *redis.Client
	db  *gredis.Utils
}

// NewDB creates a new DB instance
func NewDB(opt *redis.Options) *DB {
	rdb := redis.NewClient(opt)
	return &DB{
		cli: rdb,
		db:  gredis.NewRedisUtils(rdb),
	}
}

// Ping checks the server is reachable
func (d *DB) Ping(ctx context.Context) error {
	if err := d.cli.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "ping redis")
	}

	return nil
}

// Cache stores json documents under a key prefix
type Cache struct {
	db     *DB
	prefix string
}

// NewCache create new cache, all keys are stored as prefix + key
func NewCache(db *DB, prefix string) *Cache {
	return &Cache{db: db, prefix: prefix}
}

// GetJSON loads key into v, returns false on cache miss
func (c *Cache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.db.db.GetItem(ctx, c.prefix+key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, errors.Wrapf(err, "get %q", key)
	}
	if raw == "" {
		return false, nil
	}

	if err = json.Unmarshal([]byte(raw), v); err != nil {
		return false, errors.Wrapf(err, "unmarshal %q", key)
	}

	return true, nil
}

// SetJSON stores v under key with ttl
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %q", key)
	}

	if err = c.db.db.SetItem(ctx, c.prefix+key, string(payload), ttl); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}

	return nil
}

// Del removes keys, missing keys are ignored
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.prefix+k)
	}

	if err := c.db.cli.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, "del keys")
	}

	return nil
}
