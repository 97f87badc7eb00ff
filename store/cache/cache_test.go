package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("user:1:summary:days=7", "payload", time.Minute)

	got, ok := c.Get("user:1:summary:days=7")
	require.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestGetMissesAfterExpiry(t *testing.T) {
	c := New()
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Minute)

	_, ok := c.Get("k")
	require.True(t, ok, "entry should be live before expiry")

	now = now.Add(time.Minute + time.Second)
	_, ok = c.Get("k")
	require.False(t, ok, "entry should be a miss strictly after expires_at")

	// The expired entry must have been evicted by the lookup itself.
	assert.Equal(t, 0, c.GetStats().TotalEntries)
}

func TestSetOverwritesUnconditionally(t *testing.T) {
	c := New()
	c.Set("k", "first", time.Minute)
	c.Set("k", "second", time.Minute)

	got, _ := c.Get("k")
	assert.Equal(t, "second", got)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New()
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v", 0)
	now = now.Add(24 * 365 * time.Hour)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	c.Set("user:7:summary:days=7", 1, time.Minute)
	c.Set("user:7:summary:days=30", 2, time.Minute)
	c.Set("user:7:init", 3, time.Minute)
	c.Set("user:70:init", 4, time.Minute)
	c.Set("user:8:init", 5, time.Minute)

	removed := c.InvalidatePrefix("user:7:")
	assert.Equal(t, 3, removed)

	for _, key := range []string{"user:7:summary:days=7", "user:7:summary:days=30", "user:7:init"} {
		_, ok := c.Get(key)
		assert.False(t, ok, "key %s should be gone", key)
	}

	// Other users are unaffected.
	_, ok := c.Get("user:70:init")
	assert.True(t, ok)
	_, ok = c.Get("user:8:init")
	assert.True(t, ok)
}

func TestNoResurrectionUnderConcurrentInvalidation(t *testing.T) {
	c := New()
	const iterations = 200

	for i := 0; i < iterations; i++ {
		key := fmt.Sprintf("user:9:init:%d", i)
		c.Set(key, i, time.Minute)

		var wg sync.WaitGroup
		wg.Add(2)
		invalidated := make(chan struct{})
		go func() {
			defer wg.Done()
			c.InvalidatePrefix("user:9:")
			close(invalidated)
		}()
		go func() {
			defer wg.Done()
			<-invalidated
			// After the invalidation finished, the entry must not come back.
			_, ok := c.Get(key)
			assert.False(t, ok)
		}()
		wg.Wait()
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("user:%d:summary:days=7", n%4)
			for j := 0; j < 100; j++ {
				c.Set(key, j, time.Minute)
				c.Get(key)
				if j%10 == 0 {
					c.InvalidatePrefix(fmt.Sprintf("user:%d:", n%4))
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGetStats(t *testing.T) {
	c := New()
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Hour)
	now = now.Add(10 * time.Minute)

	stats := c.GetStats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.LiveEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
}
