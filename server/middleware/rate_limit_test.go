package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	require.True(t, rl.Allow("user:1"))
	require.True(t, rl.Allow("user:1"))
	require.True(t, rl.Allow("user:1"))
	require.False(t, rl.Allow("user:1"))
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	require.True(t, rl.Allow("user:1"))
	require.False(t, rl.Allow("user:1"))
	require.True(t, rl.Allow("user:2"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	require.Equal(t, 10, rl.rps)
	require.Equal(t, 20, rl.burst)
}
