package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/telemetry"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// RedisClient is the subset of the go-redis client the store uses,
// extracted for testing.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore implements Store on Redis. Entries are written without
// expiration: the agent overwrites them, never expires them.
type RedisStore struct {
	client RedisClient
}

// NewRedisStore connects to Redis and verifies the connection.
// When instrumented, the client reports traces through OpenTelemetry.
func NewRedisStore(config *RedisConfig, instrumented bool) (*RedisStore, error) {
	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.LogFromContext(ctx).WithFields(map[string]interface{}{
		"operation": "redis_connection",
		"host":      config.Host,
		"port":      config.Port,
		"db":        config.DB,
	})

	logger.Info("Establishing Redis connection")

	poolSize := config.PoolSize
	if poolSize == 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:   config.Password,
		DB:         config.DB,
		PoolSize:   poolSize,
		MaxRetries: 3,
	})

	if instrumented {
		telemetry.InstrumentRedisClient(client)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the stored value for the key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewStorageError(fmt.Sprintf("redis get %s", key), err)
	}
	return val, true, nil
}

// Set overwrites the value for the key with no expiration.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("redis set %s", key), err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
