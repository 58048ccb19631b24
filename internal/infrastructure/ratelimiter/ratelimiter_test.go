package ratelimiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowDrainsBurst(t *testing.T) {
	store := NewInMemory()
	defer store.Close()

	limiter := New(Options{
		MaxRatePerSecond: 1,
		MaxBurst:         3,
		Store:            store,
	})

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("1.2.3.4"), "request %d within burst", i)
	}
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.Equal(t, 0, limiter.Remaining("1.2.3.4"))
}

func TestSourcesAreIndependent(t *testing.T) {
	store := NewInMemory()
	defer store.Close()

	limiter := New(Options{MaxRatePerSecond: 1, MaxBurst: 1, Store: store})

	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"))
}

func TestRefillRestoresTokens(t *testing.T) {
	tb := &TokenBucket{
		ratePerMillisecond: 10.0 / 1000.0, // 10 req/s
		maxBurst:           10,
	}

	state := bucketState{tokens: 0, lastRefill: 0}

	// 500ms at 10/s refills 5 whole tokens
	state = tb.refill(state, 500)
	assert.Equal(t, 5, state.tokens)

	// a long idle period caps at the burst size
	state = tb.refill(state, 60_000)
	assert.Equal(t, 10, state.tokens)

	// no time passed, nothing changes
	again := tb.refill(state, 60_000)
	assert.Equal(t, state, again)
}

func TestMaxBurstDefaultsToRate(t *testing.T) {
	store := NewInMemory()
	defer store.Close()

	limiter := New(Options{MaxRatePerSecond: 7, Store: store})
	assert.Equal(t, 7, limiter.MaxBurst())
}

func TestSourceKeyFromRequest(t *testing.T) {
	limiter := New(Options{MaxRatePerSecond: 1, Store: NewInMemory()})

	r := httptest.NewRequest("GET", "/api/live/ev-1", nil)
	r.RemoteAddr = "192.0.2.10:51234"
	assert.Equal(t, "192.0.2.10", limiter.SourceKeyFromRequest(r))

	r.RemoteAddr = "no-port-here"
	assert.Equal(t, "no-port-here", limiter.SourceKeyFromRequest(r))
}

func TestInMemoryStoreExpiration(t *testing.T) {
	store := NewInMemory()
	defer store.Close()

	require.NoError(t, store.SetWithExpiration("k", 42, 10*time.Millisecond))
	v, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	time.Sleep(20 * time.Millisecond)
	_, err = store.Get("k")
	assert.ErrorIs(t, err, ErrStoreMiss)
}
