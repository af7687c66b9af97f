// Package requesttime pins one "now" per HTTP request so age evaluation,
// token issuance and audit timestamps agree within a request.
package requesttime

import (
	"net/http"
	"time"

	"inro/pkg/requestcontext"
)

// Clock returns the instant a request starts.
type Clock func() time.Time

// Middleware stores time.Now() at request start. Read it with requestcontext.Now.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injected clock, for tests and replays.
func WithClock(clock Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
