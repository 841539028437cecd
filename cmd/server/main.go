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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"idverse/internal/credential/handler"
	"idverse/internal/credential/metrics"
	"idverse/internal/credential/service"
	jwttoken "idverse/internal/jwt_token"
	"idverse/internal/platform/config"
	"idverse/internal/platform/health"
	"idverse/internal/platform/logger"
	"idverse/internal/ratelimit/workers/cleanup"
	httptransport "idverse/internal/transport/http"
	"idverse/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	poolStatsInterval = 15 * time.Second
	operatorTokenTTL  = 12 * time.Hour
)

// main wires backends selected by configuration into the credential engine,
// exposes the HTTP router, and keeps the server lifecycle small.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing idverse",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"issuer", cfg.Credential.IssuerID,
		"content_mode", cfg.Credential.ContentMode,
		"registry_mode", cfg.Credential.RegistryMode,
		"challenge_mode", cfg.Credential.ChallengeMode,
		"metadata_mode", cfg.Credential.MetadataMode,
	)

	healthHandler := health.New(cfg.Environment, cfg.Credential.IssuerID)
	b, err := buildBackends(ctx, cfg, log, healthHandler)
	if err != nil {
		return err
	}
	defer b.close(log)

	shutdownTracing, engineTracer, err := setupTracing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	opts := []service.Option{
		service.WithMetadataStore(b.metadata),
		service.WithRequestStore(b.requests),
		service.WithRequestTTL(cfg.Credential.RequestTTL),
		service.WithPublisher(b.publisher),
		service.WithLogger(log),
		service.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
		service.WithTracer(engineTracer),
		service.WithDefaultTTL(cfg.Credential.CredentialTTL),
	}
	if resolver := b.keyResolver; resolver != nil {
		opts = append(opts, service.WithKeyResolver(resolver))
	}
	engine := service.New(b.signer, b.contents, b.registry, b.challenges, opts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience, operatorTokenTTL)
	router := httptransport.NewRouter(httptransport.Config{
		Credentials:    handler.New(engine, log),
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		Health:         healthHandler,
		MetricsHandler: promhttp.Handler(),
		Metrics:        request.NewMetrics(prometheus.DefaultRegisterer),
		RateLimit:      b.rateLimit,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if b.redis != nil {
		g.Go(func() error {
			b.redis.RunPoolStats(gctx, poolStatsInterval)
			return nil
		})
	}
	g.Go(func() error {
		return cleanup.New(b.buckets, cleanup.WithLogger(log)).Start(gctx)
	})
	if b.relay != nil {
		g.Go(func() error {
			return b.relay.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
