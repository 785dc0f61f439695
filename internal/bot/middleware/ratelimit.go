package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"serotonyl.ru/rewards-bot/internal/metrics"
)

// idleTTL — через сколько простоя лимитер пользователя выкидывается из памяти.
const idleTTL = time.Hour

// RateLimiter ограничивает количество апдейтов на пользователя:
// не больше limit за window, токены восстанавливаются равномерно.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*limiterEntry
	every    rate.Limit
	burst    int

	stopOnce sync.Once
	stopCh   chan struct{}
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	rl := &RateLimiter{
		limiters: make(map[int64]*limiterEntry),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

// Close останавливает фоновую очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[userID] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	if !limiter.Allow() {
		metrics.RateLimitedTotal.Inc()
		return false
	}
	return true
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-idleTTL))
		}
	}
}

func (rl *RateLimiter) cleanup(threshold time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, userID)
		}
	}
}
