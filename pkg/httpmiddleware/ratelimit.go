package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window duration.
	Window time.Duration
}

// clientWindow tracks one client's request counts across the current and
// previous window. The previous count is weighted by how much of its
// window still overlaps the sliding window, which smooths bursts at
// window boundaries.
type clientWindow struct {
	prev      float64
	curr      float64
	currStart time.Time
}

type limiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*clientWindow
}

// RateLimit returns a middleware enforcing a sliding-window request limit
// keyed by client IP. Every response carries X-RateLimit-Limit,
// X-RateLimit-Remaining, and X-RateLimit-Reset; an exhausted client gets
// 429 with a Retry-After header. Stale client entries are evicted in the
// background until ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := &limiter{cfg: cfg, clients: map[string]*clientWindow{}}
	go l.evictLoop(ctx)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(clientIP(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retry := math.Ceil(math.Max(time.Until(resetAt).Seconds(), 0))
				w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// take records a request for key at time now and reports whether it is
// within the limit, along with the remaining budget and window reset time.
func (l *limiter) take(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cw := l.clients[key]
	if cw == nil {
		cw = &clientWindow{currStart: now}
		l.clients[key] = cw
	}

	if since := now.Sub(cw.currStart); since >= l.cfg.Window {
		cw.prev = cw.curr
		if since >= 2*l.cfg.Window {
			// The previous window has fully expired too.
			cw.prev = 0
		}
		cw.curr = 0
		cw.currStart = now
	}

	weight := 1 - now.Sub(cw.currStart).Seconds()/l.cfg.Window.Seconds()
	if weight < 0 {
		weight = 0
	}
	resetAt = cw.currStart.Add(l.cfg.Window)

	used := cw.prev*weight + cw.curr
	if used >= float64(l.cfg.Max) {
		return 0, resetAt, false
	}
	cw.curr++

	remaining = int(float64(l.cfg.Max) - used - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evictLoop drops clients whose windows have fully expired.
func (l *limiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, cw := range l.clients {
				if now.Sub(cw.currStart) >= 2*l.cfg.Window {
					delete(l.clients, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// clientIP resolves the client address, honouring proxy headers: the
// first X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
