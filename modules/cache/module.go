package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Module provides the Redis profile cache as a mono module.
type Module struct {
	cache     *Cache
	client    *redis.Client
	redisAddr string
	logger    types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

const (
	profilePrefix = "profile:"
	profileTTL    = 5 * time.Minute
)

// NewModule creates the cache module.
func NewModule(redisAddr string, logger types.Logger) *Module {
	return &Module{
		redisAddr: redisAddr,
		logger:    logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis and initializes the cache.
func (m *Module) Start(ctx context.Context) error {
	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.cache = New(m.client, profilePrefix, profileTTL)
	m.logger.Info("cache module started", "addr", m.redisAddr, "ttl", profileTTL.String())
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	m.logger.Info("cache module stopped")
	return nil
}

// Health pings Redis.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	stats := m.cache.Snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"hits":   stats.Hits,
			"misses": stats.Misses,
		},
	}
}

// Cache returns the profile cache for the realtime module.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Get delegates to the cache once started; before that every lookup is a
// miss. Lets other modules hold the module pointer, which is stable across
// the lifecycle.
func (m *Module) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if m.cache == nil {
		return false, nil
	}
	return m.cache.Get(ctx, key, dest)
}

// Set delegates to the cache once started.
func (m *Module) Set(ctx context.Context, key string, value interface{}) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Set(ctx, key, value)
}

// Delete delegates to the cache once started.
func (m *Module) Delete(ctx context.Context, key string) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Delete(ctx, key)
}
