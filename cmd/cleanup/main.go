package main

import (
	"context"
	"flag"
	"log"
	"time"

	"equiprent/internal/config"
	"equiprent/internal/database"
	"equiprent/internal/domain/booking"
	"equiprent/internal/domain/notification"
	"equiprent/internal/logging"
)

func main() {
	retention := flag.Duration("retention", 30*24*time.Hour, "delete read notifications older than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.AppEnv).With().Str("component", "cleanup").Logger()

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	now := time.Now().UTC()

	cancelled, err := booking.NewRepository(db).CancelStalePending(ctx, now)
	if err != nil {
		log.Fatalf("cancel stale bookings failed: %v", err)
	}

	notifications := notification.NewService(notification.NewNotificationRepository(db), notification.PollingDelivery{}, logger)
	purged, err := notifications.PurgeRead(ctx, now.Add(-*retention))
	if err != nil {
		log.Fatalf("purge notifications failed: %v", err)
	}

	logger.Info().Int64("stale_bookings_cancelled", cancelled).Int64("notifications_purged", purged).Msg("cleanup completed")
}
