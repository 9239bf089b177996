package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// Window is a fixed rate-limit window for one key.
type Window struct {
	Count   int
	ResetAt time.Time
}

// RateLimitStore keeps per-key counters. Increment must be linearizable per key:
// it starts a new window (count 1) when the current one has elapsed, otherwise
// it adds one to the count.
type RateLimitStore interface {
	Get(ctx context.Context, key string) (Window, bool, error)
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
}

// MemoryRateLimitStore keeps windows in process memory. Counters are lost on
// restart and not shared between instances.
type MemoryRateLimitStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, Window]
	now   func() time.Time
}

// NewMemoryRateLimitStore builds the store. A nil clock means time.Now.
func NewMemoryRateLimitStore(now func() time.Time) *MemoryRateLimitStore {
	if now == nil {
		now = time.Now
	}
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, Window](),
	)
	go cache.Start()

	return &MemoryRateLimitStore{cache: cache, now: now}
}

// Get returns the current window for key, if one is still open.
func (s *MemoryRateLimitStore) Get(_ context.Context, key string) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(key)
	if item == nil {
		return Window{}, false, nil
	}
	w := item.Value()
	if !s.now().Before(w.ResetAt) {
		return Window{}, false, nil
	}
	return w, true, nil
}

// Increment counts one request against key.
func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := Window{Count: 1, ResetAt: now.Add(window)}
	if item := s.cache.Get(key); item != nil {
		if current := item.Value(); now.Before(current.ResetAt) {
			w = Window{Count: current.Count + 1, ResetAt: current.ResetAt}
		}
	}

	// The cache TTL only drives eviction; expiry decisions use ResetAt and the injected clock.
	ttl := w.ResetAt.Sub(now)
	if ttl <= 0 {
		ttl = window
	}
	s.cache.Set(key, w, ttl)
	return w, nil
}

// Len reports how many windows are cached.
func (s *MemoryRateLimitStore) Len() int {
	return s.cache.Len()
}

// Close stops the eviction goroutine.
func (s *MemoryRateLimitStore) Close() error {
	s.cache.Stop()
	return nil
}

// incrementScript atomically increments the counter and starts the window on first hit.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisRateLimitStore shares windows across instances through Redis.
type RedisRateLimitStore struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// NewRedisRateLimitStore builds the store. Keys are namespaced with prefix.
func NewRedisRateLimitStore(client redis.Scripter, prefix string) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisRateLimitStore) redisKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", s.prefix, key)
}

// Get returns the open window for key, if any.
func (s *RedisRateLimitStore) Get(ctx context.Context, key string) (Window, bool, error) {
	rk := s.redisKey(key)
	// Scripter does not expose GET; a read-only script keeps the interface narrow.
	res, err := getScript.Run(ctx, s.client, []string{rk}).Int64Slice()
	if err != nil {
		return Window{}, false, fmt.Errorf("rate limit get: %w", err)
	}
	if len(res) != 2 || res[0] <= 0 || res[1] <= 0 {
		return Window{}, false, nil
	}
	return Window{
		Count:   int(res[0]),
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, true, nil
}

var getScript = redis.NewScript(`
local count = redis.call("GET", KEYS[1])
if not count then
  return {0, 0}
end
return {tonumber(count), redis.call("PTTL", KEYS[1])}
`)

// Increment counts one request against key.
func (s *RedisRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{s.redisKey(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("rate limit increment: %w", err)
	}
	if len(res) != 2 {
		return Window{}, fmt.Errorf("rate limit increment: unexpected reply %v", res)
	}
	return Window{
		Count:   int(res[0]),
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Count      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter allows at most max requests per key per window.
type RateLimiter struct {
	store  RateLimitStore
	max    int
	window time.Duration
}

// NewRateLimiter builds a limiter over store.
func NewRateLimiter(store RateLimitStore, max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{store: store, max: max, window: window}
}

// Window returns the configured window length.
func (l *RateLimiter) Window() time.Duration {
	return l.window
}

// Allow counts a request for key. Rejected requests still count, so a caller that
// keeps hammering stays blocked until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	w, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return RateDecision{}, err
	}
	d := RateDecision{
		Allowed:   w.Count <= l.max,
		Count:     w.Count,
		Remaining: l.max - w.Count,
		ResetAt:   w.ResetAt,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = l.window
	}
	return d, nil
}
