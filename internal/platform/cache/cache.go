// Package cache manages the Redis client that backs the TTL session store
// and takes part in the readiness probe.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session reads and writes are tiny, so the timeouts stay tight: a slow
// Redis should surface as an error, not a frozen conversation.
const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// Cache holds the Redis client shared by the session store and health checks.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL (STUDYBOT_CACHE_URL).
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return &Cache{Client: client}, nil
}

// Close shuts down the client and its connection pool.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck pings Redis; the readiness endpoint calls it per request.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
