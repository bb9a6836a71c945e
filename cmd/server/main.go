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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/text/language"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/httpserver"
	"github.com/mmynk/settleup/internal/idempotency"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/postgres"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.App.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Storage.Driver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	idemStore, closeIdem, err := openIdempotencyStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize idempotency store: %w", err)
	}
	defer closeIdem()

	interceptors := []connect.Interceptor{
		middleware.LoggingInterceptor(logger),
		m.Interceptor(),
	}
	if cfg.Auth.JWTSecret != "" {
		jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, 24*time.Hour)
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))
	} else {
		logger.Warn("JWT_SECRET not set, RPCs are served without authentication")
	}
	handlerOpts := connect.WithInterceptors(interceptors...)

	formatter := calculator.NewFormatter(language.Make(cfg.App.Locale), cfg.App.DefaultCurrency)

	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(
		service.NewGroupService(store, cfg.App.DefaultCurrency), handlerOpts)
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(
		service.NewLedgerService(store, formatter, m), handlerOpts)

	handler := httpserver.New(httpserver.Options{
		Services: []httpserver.Service{
			{Path: groupPath, Handler: groupHandler},
			{Path: ledgerPath, Handler: ledgerHandler},
		},
		Gatherer: reg,
		Idempotency: idempotency.Middleware(idemStore, idempotency.Options{
			TTL:         cfg.Idempotency.TTL,
			LockTimeout: cfg.Idempotency.LockTimeout,
			OnReplay:    m.ObserveReplay,
		}, logger),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "app", cfg.App.Name, "address", srv.Addr)
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

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Driver == config.DriverPostgres {
		pg, err := postgres.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	lite, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// openIdempotencyStore uses Redis when configured so replays survive restarts
// and are shared between replicas.
func openIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		slog.Warn("REDIS_ADDR not set, idempotency keys are kept in memory")
		return idempotency.NewMemoryStore(), func() {}, nil
	}

	rs, err := idempotency.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { rs.Close() }, nil
}
