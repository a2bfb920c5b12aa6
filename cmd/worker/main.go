package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegisguard/aegis/config"
	"github.com/aegisguard/aegis/internal/bootstrap"
	"github.com/aegisguard/aegis/internal/kafka"
	"github.com/aegisguard/aegis/internal/notify"
	"go.uber.org/zap"
)

// The worker runs the lifecycle timeout sweeps and drains the
// notifications topic into the notifier.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer app.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	notifier := notify.NewNotifier(notify.NewLogSender(logger))

	go func() {
		if err := consumer.Consume(ctx, notifier.Handle); err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	sweepEvery := time.Duration(cfg.Worker.SweepIntervalMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	logger.Info("worker started", zap.Duration("sweep_interval", sweepEvery))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			unmatched, err := app.Engine.ExpireUnmatchedBookings(ctx)
			if err != nil {
				logger.Error("expire unmatched bookings", zap.Error(err))
			} else if len(unmatched) > 0 {
				logger.Info("cancelled unmatched bookings", zap.Int("count", len(unmatched)))
			}

			unaccepted, err := app.Engine.ExpireUnacceptedBookings(ctx)
			if err != nil {
				logger.Error("expire unaccepted bookings", zap.Error(err))
			} else if len(unaccepted) > 0 {
				logger.Info("cancelled unaccepted bookings", zap.Int("count", len(unaccepted)))
			}

			unstarted, err := app.Engine.ExpireUnstartedBookings(ctx)
			if err != nil {
				logger.Error("expire unstarted bookings", zap.Error(err))
			} else if len(unstarted) > 0 {
				logger.Info("cancelled unstarted bookings", zap.Int("count", len(unstarted)))
			}
		}
	}
}
