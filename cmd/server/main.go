package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"inro/internal/attestation"
	"inro/internal/card/reader"
	"inro/internal/card/session"
	"inro/internal/platform/config"
	"inro/internal/platform/health"
	"inro/internal/platform/logger"
	"inro/internal/platform/metrics"
	"inro/internal/platform/tracer"
	httptransport "inro/internal/transport/http"
	verificationHandler "inro/internal/verification/handler"
	verificationMetrics "inro/internal/verification/metrics"
	"inro/internal/verification/service"
	audit "inro/pkg/platform/audit"
	auditmetrics "inro/pkg/platform/audit/metrics"
	auditpublisher "inro/pkg/platform/audit/publisher"
	auditmemory "inro/pkg/platform/audit/store/memory"
	"inro/pkg/platform/circuit"
	"inro/pkg/platform/middleware/metadata"
	"inro/pkg/platform/middleware/ratelimit"
	"inro/pkg/platform/middleware/request"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	auditBufferSize    = 1024
	shutdownTimeout    = 10 * time.Second
	rateLimitSweepTick = time.Minute
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inro: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(level)

	log.Info("initializing inro",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"nfc_available", cfg.NFCAvailable,
	)

	health.Version = version
	m := metrics.New(version)

	var traceProvider *sdktrace.TracerProvider
	if cfg.TracingEndpoint != "" {
		traceProvider, err = tracer.NewProvider(context.Background(), tracer.ProviderConfig{
			ServiceName: "inro",
			Version:     version,
			Endpoint:    cfg.TracingEndpoint,
		})
		if err != nil {
			return err
		}
	}
	tr := tracer.NewOTel()

	sessions := session.NewFactory(
		session.NewCapability(cfg.NFCAvailable, reader.WithTracer(tr), reader.WithLogger(log)),
		session.WithTimeout(cfg.SessionTimeout),
		session.WithTracer(tr),
		session.WithLogger(log),
	)
	m.SetNFCAvailable(sessions.Available())

	auditPublisher := auditpublisher.NewPublisher(
		auditmemory.NewInMemoryStore(),
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithPublisherLogger(log),
		auditpublisher.WithMetrics(auditmetrics.New(m.Registry)),
		auditpublisher.WithBreaker(circuit.New("audit_store")),
	)

	svc := service.NewService(sessions,
		service.WithAttestor(attestation.New(
			cfg.Attestation.SigningKey,
			cfg.Attestation.Issuer,
			cfg.Attestation.Audience,
			cfg.Attestation.TTL,
		)),
		service.WithAuditor(audit.NewLogger(log, auditPublisher)),
		service.WithMetrics(verificationMetrics.New(m.Registry)),
		service.WithTracer(tr),
		service.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("audit", auditPublisher.Healthy)

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, ratelimit.WithLogger(log))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Verification:   verificationHandler.New(svc, log),
		Health:         healthHandler,
		MetricsHandler: m.Handler(),
		HTTPMetrics:    request.NewMetrics(m.Registry),
		Metadata:       metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}),
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		m.SetReady(true)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sweepRateLimits(gctx, limiter, log)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		m.SetReady(false)
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		auditPublisher.Close()
		if traceProvider != nil {
			if terr := traceProvider.Shutdown(shutdownCtx); terr != nil {
				log.Warn("trace provider shutdown failed", "error", terr)
			}
		}
		if err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func sweepRateLimits(ctx context.Context, limiter *ratelimit.Limiter, log *slog.Logger) {
	ticker := time.NewTicker(rateLimitSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				log.Debug("swept idle rate limit buckets", "removed", n, "tracked", limiter.Len())
			}
		}
	}
}
