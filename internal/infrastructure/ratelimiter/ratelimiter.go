package ratelimiter

import (
	"errors"
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	tokensKeyPrefix = "rl:tokens:"
	refillKeyPrefix = "rl:refill:"
)

// Limiter throttles actions per source using a token bucket. Sources are
// arbitrary strings: an IP address for HTTP requests, a user ID for
// websocket commands.
type Limiter interface {
	Allow(sourceKey string) bool
	Remaining(sourceKey string) int
	MaxBurst() int
	SourceKeyFromRequest(r *http.Request) string
}

type TokenBucket struct {
	ratePerMillisecond float64
	maxBurst           int
	store              Store
	storeTTL           time.Duration

	// Per-source locks so refill and spend are atomic per key
	locks sync.Map // map[string]*sync.Mutex
}

type bucketState struct {
	tokens     int
	lastRefill int64 // Unix milliseconds
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	Store            Store
	StoreTTL         time.Duration
}

func New(options Options) Limiter {
	if options.Store == nil {
		options.Store = NewInMemory()
	}

	if options.StoreTTL == 0 {
		options.StoreTTL = 10 * time.Second
	}

	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond
	}

	return &TokenBucket{
		ratePerMillisecond: float64(options.MaxRatePerSecond) / 1000.0,
		maxBurst:           options.MaxBurst,
		store:              options.Store,
		storeTTL:           options.StoreTTL,
	}
}

func (tb *TokenBucket) Allow(sourceKey string) bool {
	lock := tb.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := tb.refill(tb.getState(sourceKey), now)

	if state.tokens > 0 {
		state.tokens--
		tb.setState(sourceKey, state)
		return true
	}

	tb.setState(sourceKey, state)
	return false
}

func (tb *TokenBucket) Remaining(sourceKey string) int {
	lock := tb.getLock(sourceKey)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UnixMilli()
	state := tb.refill(tb.getState(sourceKey), now)
	tb.setState(sourceKey, state)

	return state.tokens
}

func (tb *TokenBucket) MaxBurst() int {
	return tb.maxBurst
}

func (tb *TokenBucket) SourceKeyFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (tb *TokenBucket) getLock(sourceKey string) *sync.Mutex {
	lock, _ := tb.locks.LoadOrStore(sourceKey, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (tb *TokenBucket) getState(sourceKey string) bucketState {
	tokens, tokensErr := tb.store.Get(tokensKeyPrefix + sourceKey)
	lastRefill, refillErr := tb.store.Get(refillKeyPrefix + sourceKey)

	if errors.Is(tokensErr, ErrStoreMiss) || errors.Is(refillErr, ErrStoreMiss) {
		return bucketState{tokens: tb.maxBurst, lastRefill: time.Now().UnixMilli()}
	}

	// Fail open on store errors rather than blocking traffic
	if tokensErr != nil || refillErr != nil {
		return bucketState{tokens: tb.maxBurst, lastRefill: time.Now().UnixMilli()}
	}

	return bucketState{tokens: tokens, lastRefill: int64(lastRefill)}
}

func (tb *TokenBucket) setState(sourceKey string, state bucketState) {
	_ = tb.store.SetWithExpiration(tokensKeyPrefix+sourceKey, state.tokens, tb.storeTTL)
	_ = tb.store.SetWithExpiration(refillKeyPrefix+sourceKey, int(state.lastRefill), tb.storeTTL)
}

func (tb *TokenBucket) refill(state bucketState, now int64) bucketState {
	elapsed := now - state.lastRefill
	if elapsed <= 0 {
		return state
	}

	newTokens := float64(state.tokens) + float64(elapsed)*tb.ratePerMillisecond
	if newTokens > float64(tb.maxBurst) {
		return bucketState{tokens: tb.maxBurst, lastRefill: now}
	}

	// Only count whole tokens
	return bucketState{tokens: int(math.Floor(newTokens)), lastRefill: now}
}
