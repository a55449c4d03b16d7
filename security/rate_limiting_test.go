package security

import (
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Allow_UnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisStore{redis: client, limit: 3, window: time.Minute}

	mock.ExpectIncr("ratelimit:join:user:user-1").SetVal(1)
	mock.ExpectExpire("ratelimit:join:user:user-1", time.Minute).SetVal(true)

	allowed, err := store.Allow("user:user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Allow_AtLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisStore{redis: client, limit: 3, window: time.Minute}

	mock.ExpectIncr("ratelimit:join:user:user-1").SetVal(3)

	allowed, err := store.Allow("user:user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisStore_Allow_OverLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisStore{redis: client, limit: 3, window: time.Minute}

	mock.ExpectIncr("ratelimit:join:user:user-1").SetVal(4)

	allowed, err := store.Allow("user:user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisStore_Allow_FailsOpenOnRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisStore{redis: client, limit: 3, window: time.Minute}

	mock.ExpectIncr("ratelimit:join:user:user-1").SetErr(assert.AnError)

	allowed, err := store.Allow("user:user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewRateLimiter_DefaultsInvalidLimit(t *testing.T) {
	client, _ := redismock.NewClientMock()

	limiter := NewRateLimiter(client, 0)
	assert.Equal(t, 30, limiter.perMinute)

	limiter = NewRateLimiter(client, 5)
	assert.Equal(t, 5, limiter.perMinute)
}
