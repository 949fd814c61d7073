package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchlist/internal/bootstrap"
	jwttoken "watchlist/internal/jwt_token"
	"watchlist/internal/platform/config"
	"watchlist/internal/platform/httpserver"
	"watchlist/internal/platform/logger"
	platformmetrics "watchlist/internal/platform/metrics"
	"watchlist/internal/screening/handler"
	screeningmetrics "watchlist/internal/screening/metrics"
	httptransport "watchlist/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required")
	}

	screeningMetrics := screeningmetrics.New()
	stack, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		Logger:  log,
		Metrics: screeningMetrics,
	})
	if err != nil {
		return err
	}
	defer stack.Close()

	checkers := map[string]httptransport.HealthChecker{}
	if stack.DB != nil {
		checkers["postgres"] = &httptransport.DatabaseHealthChecker{DB: stack.DB}
	}
	if stack.Redis != nil {
		checkers["redis"] = httptransport.CheckFunc(stack.Redis.Health)
	}
	if stack.Producer != nil {
		checkers["kafka"] = httptransport.CheckFunc(stack.Producer.Ping)
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	screeningHandler := handler.New(stack.Service, log, screeningMetrics)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        platformmetrics.New(),
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		AllowedOrigins: cfg.AllowedOrigins,
		HealthCheckers: checkers,
		API:            []httptransport.RouteRegistrar{screeningHandler},
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting watchlist screening server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
