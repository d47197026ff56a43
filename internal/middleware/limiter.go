package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"fygaro-bridge/internal/logger"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Shopper-facing redirects (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Trusted senders: the payment gateway delivers bursts from few IPs
	// and every request is signature checked.
	limitGateway = rate.Limit(100)
	burstGateway = 200
)

const (
	visitorIdle     = 3 * time.Minute
	cleanupInterval = time.Minute
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and tier.
type RateLimiter struct {
	mu           sync.Mutex
	visitors     map[string]*visitor
	gatewayPaths map[string]bool
	clock        clockz.Clock
}

// NewRateLimiter builds a limiter; requests to gatewayPaths use the gateway tier.
func NewRateLimiter(clock clockz.Clock, gatewayPaths ...string) *RateLimiter {
	if clock == nil {
		clock = clockz.RealClock
	}
	gateway := make(map[string]bool, len(gatewayPaths))
	for _, p := range gatewayPaths {
		gateway[p] = true
	}
	return &RateLimiter{
		visitors:     make(map[string]*visitor),
		gatewayPaths: gateway,
		clock:        clock,
	}
}

// getVisitor retrieves or creates a rate limiter for the given key.
func (l *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		l.visitors[key] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

// StartCleanup removes idle visitors until ctx is done.
func (l *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.clock.After(cleanupInterval):
				l.cleanup()
			}
		}
	}()
}

func (l *RateLimiter) cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := l.clock.Now()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Middleware rejects requests over the client's quota with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := l.resolveRateTier(r)

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		key := "ip:" + ip + ":" + tier

		if !l.getVisitor(key, limit, burst).Allow() {
			logger.FromCtx(r.Context()).Warn("rate limit exceeded",
				zap.String("tier", tier),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRateTier determines which rate limit policy applies to the request.
func (l *RateLimiter) resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	if l.gatewayPaths[r.URL.Path] {
		return limitGateway, burstGateway, "gateway"
	}
	return limitGeneral, burstGeneral, "general"
}
