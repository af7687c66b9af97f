// Package ratelimit throttles requests per client IP with token buckets from
// golang.org/x/time/rate. State is process-local.
package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"inro/pkg/platform/privacy"
	"inro/pkg/requestcontext"
)

// DefaultIdleTTL is how long an idle client's bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per client key.
type Limiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[string]*client
}

type Option func(*Limiter)

func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) {
		lim.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(lim *Limiter) {
		lim.now = now
	}
}

func WithIdleTTL(d time.Duration) Option {
	return func(lim *Limiter) {
		lim.idleTTL = d
	}
}

// New allows rps requests per second with bursts of burst per client.
// A non-positive rps disables limiting.
func New(rps float64, burst int, opts ...Option) *Limiter {
	l := &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		clients: make(map[string]*client),
	}
	if rps <= 0 {
		l.rps = rate.Inf
	}
	if l.burst < 1 {
		l.burst = 1
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow spends one token for key and reports whether the request may proceed
// and, if not, how long until a token is available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	l.mu.Unlock()

	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// Sweep drops buckets idle longer than the TTL and returns how many went.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

// Len reports tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects over-limit clients with 429 and a Retry-After header.
// The key is the client IP resolved by the metadata middleware.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = "unknown"
		}

		allowed, retryAfter := l.Allow(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		if l.logger != nil {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"ip_prefix", privacy.AnonymizeIP(ip),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests from this address. Please try again later."}`)) //nolint:errcheck // headers already sent
	})
}
