package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegisguard/aegis/config"
	"github.com/aegisguard/aegis/internal/bootstrap"
	"github.com/aegisguard/aegis/internal/domain"
	"go.uber.org/zap"
)

// The app binary is the dispatch daemon: it polls requested bookings and
// drives guard matching on the configured cadence. Timeout sweeps and
// notifications run in the worker binary.
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

	pollEvery := time.Duration(cfg.Worker.MatchPollSeconds) * time.Second
	if pollEvery <= 0 {
		pollEvery = 15 * time.Second
	}
	batch := cfg.Worker.MatchBatchSize
	if batch <= 0 {
		batch = 50
	}

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	logger.Info("dispatch daemon started", zap.Duration("poll_interval", pollEvery))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			matchPending(ctx, app, batch, logger)
		}
	}
}

func matchPending(ctx context.Context, app *bootstrap.App, batch int, logger *zap.Logger) {
	pending, err := app.Bookings.ListByStatus(ctx, domain.BookingStatusRequested, batch)
	if err != nil {
		logger.Error("list requested bookings", zap.Error(err))
		return
	}

	for i := range pending {
		id := pending[i].ID
		if _, err := app.Engine.MatchGuard(ctx, id); err != nil {
			switch {
			case errors.Is(err, domain.ErrNoGuardAvailable):
				// Stays requested; the worker cancels it once the match
				// wait window runs out.
			case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
				// Another trigger already moved this booking.
			default:
				logger.Error("match guard", zap.String("booking_id", id.String()), zap.Error(err))
			}
		}
	}
}
