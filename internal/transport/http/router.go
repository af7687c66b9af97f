package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inro/internal/platform/health"
	verificationHandler "inro/internal/verification/handler"
	"inro/pkg/platform/middleware/metadata"
	"inro/pkg/platform/middleware/ratelimit"
	"inro/pkg/platform/middleware/request"
	"inro/pkg/platform/middleware/requesttime"
)

// Deps are the pieces the router mounts. Verification and Health are
// required; the rest fall back to disabled.
type Deps struct {
	Logger         *slog.Logger
	Verification   *verificationHandler.Handler
	Health         *health.Handler
	MetricsHandler http.Handler
	HTTPMetrics    *request.Metrics
	Metadata       *metadata.Middleware
	Limiter        *ratelimit.Limiter
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires all public endpoints with middleware.
// Probes and /metrics sit outside the rate limit and body limit.
func NewRouter(d Deps) http.Handler {
	if d.Verification == nil || d.Health == nil {
		panic("httptransport.NewRouter: verification and health handlers are required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	meta := d.Metadata
	if meta == nil {
		meta = metadata.NewMiddleware(nil)
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(meta.Handler)
	r.Use(request.Logger(logger))
	r.Use(request.Latency(d.HTTPMetrics))

	d.Health.Register(r)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if d.RequestTimeout > 0 {
			api.Use(request.Timeout(d.RequestTimeout))
		}
		api.Use(request.ContentTypeJSON)
		if d.MaxBodyBytes > 0 {
			api.Use(request.BodyLimit(d.MaxBodyBytes))
		}
		if d.Limiter != nil {
			api.Use(d.Limiter.Middleware)
		}
		d.Verification.Register(api)
	})

	return r
}
