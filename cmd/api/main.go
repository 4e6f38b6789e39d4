package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equiprent/internal/cache"
	"equiprent/internal/config"
	"equiprent/internal/database"
	"equiprent/internal/events"
	"equiprent/internal/logging"
	"equiprent/internal/metrics"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.AppEnv)

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db, cfg.SameDayHandover, logger); err != nil {
		return err
	}

	metrics.Register()

	appCache, closeCache := initCache(cfg, logger)
	defer closeCache()

	bus := events.NewBus(logger)
	if cfg.AMQPURL != "" {
		forwarder, err := events.NewAMQPForwarder(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("amqp unavailable, events stay in-process")
		} else {
			defer forwarder.Close()
			bus.SubscribeAll(forwarder.Handle)
			logger.Info().Str("exchange", cfg.AMQPExchange).Msg("forwarding events to amqp")
		}
	}

	app, err := newApp(cfg, db, appCache, bus, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initCache returns a redis cache with in-memory failover, or memory only
// when REDIS_ADDR is empty.
func initCache(cfg *config.Config, logger zerolog.Logger) (cache.Cache, func()) {
	memory := cache.NewMemory(cfg.CacheMaxEntries)
	if cfg.RedisAddr == "" {
		logger.Info().Msg("REDIS_ADDR empty, using in-memory cache")
		return memory, func() {}
	}

	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis ping failed, failover will use memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	}
	return cache.NewFailover(cache.NewRedis(client, "equiprent:"), memory, logger), func() { _ = client.Close() }
}
