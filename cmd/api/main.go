package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/events"
	"github.com/safar/go-storefront/internal/httpapi"
	"github.com/safar/go-storefront/internal/observability"
	"github.com/safar/go-storefront/internal/redisx"
	"github.com/safar/go-storefront/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("Create logger: %v", err)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs the error that stopped the server and flushes the logger
// before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	txOpts := database.DefaultTxOptions()
	txOpts.MaxRetries = cfg.Checkout.MaxRetries
	st := store.New(db, txOpts)

	opts := []checkout.Option{}

	if cfg.Redis.Addr != "" {
		rdb, err := redisx.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, checkout.WithIdempotency(redisx.NewIdempotencyStore(rdb, cfg.Checkout.IdempotencyTTL)))
		logger.Info("checkout idempotency enabled", zap.String("redis", cfg.Redis.Addr))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, 1024, logger.Named("events"))
		producer.Start()
		defer producer.Close()
		opts = append(opts, checkout.WithPublisher(producer))
		logger.Info("event publishing enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	svc := checkout.NewService(st, checkout.Policy{RequireLogin: cfg.Checkout.RequireLogin},
		logger.Named("checkout"), tp, opts...)

	api := httpapi.NewServer(st, svc, db, httpapi.Config{
		TokenSecret:    cfg.Auth.TokenSecret,
		AdminUserIDs:   cfg.Auth.AdminUserIDs,
		LoginURL:       cfg.Server.LoginURL,
		RequestTimeout: cfg.Server.WriteTimeout,
	}, logger.Named("http"), tp)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
