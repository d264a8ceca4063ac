// Package ratelimit - ограничитель частоты по ключу на основе token bucket.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter хранит отдельный limiter на каждый ключ.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// New создает ограничитель: rps запросов в секунду, burst - запас токенов.
// Ключи, не использовавшиеся дольше idleTTL, удаляются при следующих обращениях.
func New(rps float64, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Allow не блокирует; false означает, что лимит для ключа исчерпан.
func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	k.evictIdle(now)

	e, ok := k.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (k *KeyedRateLimiter) evictIdle(now time.Time) {
	if k.idleTTL <= 0 {
		return
	}
	for key, e := range k.limiters {
		if now.Sub(e.lastSeen) > k.idleTTL {
			delete(k.limiters, key)
		}
	}
}

// Len - число отслеживаемых ключей.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
