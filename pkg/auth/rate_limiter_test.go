package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter_EnforcesLimit(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i)
	}

	allowed, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSlidingWindowLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(1, time.Minute)

	allowed, _ := limiter.Allow(ctx, "a")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "a")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "b")
	assert.True(t, allowed)
}

func TestSlidingWindowLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(1, 20*time.Millisecond)

	allowed, _ := limiter.Allow(ctx, "key")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "key")
	assert.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = limiter.Allow(ctx, "key")
	assert.True(t, allowed)
}

func TestSlidingWindowLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(1, time.Minute)

	_, _ = limiter.Allow(ctx, "key")
	require.NoError(t, limiter.Reset(ctx, "key"))

	allowed, _ := limiter.Allow(ctx, "key")
	assert.True(t, allowed)
}

func TestTurnRateLimiter_SeparatesScopes(t *testing.T) {
	ctx := context.Background()
	limiter := NewTurnRateLimiter(1)

	user := Scope{UserID: "u1"}
	session := Scope{SessionID: "u1"}

	allowed, err := limiter.Allow(ctx, user)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Same identifier, different tier: separate budget.
	allowed, err = limiter.Allow(ctx, session)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _ = limiter.Allow(ctx, user)
	assert.False(t, allowed)

	assert.Equal(t, 1, limiter.Limit())
}
