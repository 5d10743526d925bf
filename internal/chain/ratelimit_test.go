package chain_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/pocket/internal/chain"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("https://bsc-dataseed1.binance.org/"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("https://bsc-dataseed1.binance.org/"))
}

func TestRateLimiter_SameHostSharesBucket(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("https://node.example.com/rpc"))
	assert.False(t, rl.Allow("https://NODE.example.com/other?key=1"))
	assert.True(t, rl.Allow("https://other.example.com/"))
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(0.5, 1)

	require.NoError(t, rl.Wait(context.Background(), "node"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, rl.Wait(ctx, "node"))
}

func TestRateLimiter_WaitPaces(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(100, 1)

	require.NoError(t, rl.Wait(context.Background(), "node"))
	start := time.Now()
	require.NoError(t, rl.Wait(context.Background(), "node"))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	rl := chain.NewRateLimiter(1, 50)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("node") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.InDelta(t, 50, allowed.Load(), 2)
}
