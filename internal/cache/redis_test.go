package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/noline/locationd/internal/errors"
)

// MockRedisClient is a mock implementation of RedisClient
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	cmd := redis.NewStatusCmd(ctx)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRedisStore_GetHit(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, "k").Return("stored", nil)

	store := NewRedisStoreFromClient(client)

	val, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "stored", val)
}

func TestRedisStore_GetMissReturnsNotFound(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, "k").Return("", redis.Nil)

	store := NewRedisStoreFromClient(client)

	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_GetErrorPropagates(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Get", mock.Anything, "k").Return("", assert.AnError)

	store := NewRedisStoreFromClient(client)

	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage))
}

func TestRedisStore_SetWritesWithoutExpiration(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Set", mock.Anything, "k", "v", time.Duration(0)).Return("OK", nil)

	store := NewRedisStoreFromClient(client)

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	client.AssertExpectations(t)
}

func TestRedisStore_SetErrorPropagates(t *testing.T) {
	client := new(MockRedisClient)
	client.On("Set", mock.Anything, "k", "v", time.Duration(0)).Return("", assert.AnError)

	store := NewRedisStoreFromClient(client)

	err := store.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage))
}
