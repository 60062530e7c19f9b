package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	"github.com/allisson/planner/internal/httputil"
)

const (
	throttleCleanupInterval = 5 * time.Minute
	throttleIdleTimeout     = time.Hour
)

// ipLimiterStore holds one token bucket per client IP.
type ipLimiterStore struct {
	limiters sync.Map // map[string]*ipLimiterEntry
	rps      float64
	burst    int
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// IPThrottleMiddleware is an in-process token bucket per client IP placed in front of
// the credential endpoints. It absorbs floods before they reach the shared rate-limit
// counters. The cleanup goroutine stops when ctx is done.
//
// c.ClientIP() honors the trusted proxy headers configured on the engine.
func IPThrottleMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipLimiterStore{rps: rps, burst: burst}
	go store.cleanupStale(ctx, throttleCleanupInterval, throttleIdleTimeout)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.getLimiter(clientIP, time.Now())

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			logger.Debug("ip throttle exceeded",
				slog.String("client_ip", clientIP),
				slog.Duration("retry_after", delay),
			)

			httputil.HandleErrorGin(c, authDomain.NewRateLimitedError(time.Now().Add(delay)), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *ipLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	if val, ok := s.limiters.Load(ip); ok {
		entry := val.(*ipLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &ipLimiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	actual, _ := s.limiters.LoadOrStore(ip, entry)
	return actual.(*ipLimiterEntry).limiter
}

// purge drops limiters idle since before threshold.
func (s *ipLimiterStore) purge(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*ipLimiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

func (s *ipLimiterStore) cleanupStale(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.purge(now.Add(-idle))
		}
	}
}
