package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dshills/evidentia/internal/report"
)

const defaultPrefix = "evidentia:report:"

// RedisOptions holds connection settings.
type RedisOptions struct {
	// Redis server address.
	Address string
	// Password required when connecting to the Redis server.
	Password string
	// DB to connect to.
	DB int
}

// DefaultRedisOptions targets a local server.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Address:  "localhost:6379",
		Password: "", // no password set
		DB:       0,  // use default DB
	}
}

// ParseRedisURL reads redis://[:password@]host:port[/db]. An empty url
// yields DefaultRedisOptions.
func ParseRedisURL(url string) (RedisOptions, error) {
	if url == "" {
		return DefaultRedisOptions(), nil
	}
	o, err := redis.ParseURL(url)
	if err != nil {
		return RedisOptions{}, fmt.Errorf("parse redis url: %w", err)
	}
	return RedisOptions{Address: o.Addr, Password: o.Password, DB: o.DB}, nil
}

// Redis stores reports as JSON strings shared between server replicas.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis opens a client. The connection is established lazily on first use.
func NewRedis(opts RedisOptions, prefix string, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, prefix, ttl)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Ping tests connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, key string) (*report.Report, bool, error) {
	s, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return &r, true, nil
}

func (c *Redis) Put(ctx context.Context, key string, r *report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("redis encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
