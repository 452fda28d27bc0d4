package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docarchive/backend/internal/config"
	"github.com/docarchive/backend/internal/db"
	"github.com/docarchive/backend/internal/events"
	"github.com/docarchive/backend/internal/repositories"
	"github.com/docarchive/backend/internal/services"
	"go.uber.org/zap"
)

// sweepTimeout bounds a single retention sweep.
const sweepTimeout = 5 * time.Minute

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Purge notifications are best effort; the sweep runs without Redis.
	var publisher events.Publisher
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, purge events will not be published", zap.Error(err))
	} else {
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
	}

	auditService := services.NewAuditService(
		repositories.NewAuditRepo(pool),
		repositories.NewOfficerRepo(pool),
		repositories.NewAdminRepo(pool),
		repositories.NewFileRepo(pool),
		publisher,
		log,
	)

	log.Info("worker started",
		zap.Int("log_retention_days", cfg.LogRetentionDays),
		zap.Duration("sweep_interval", cfg.RetentionSweepInterval),
	)

	// Initial run
	runRetentionSweep(ctx, auditService, cfg.LogRetentionDays)

	sweepTicker := time.NewTicker(cfg.RetentionSweepInterval)
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			runRetentionSweep(ctx, auditService, cfg.LogRetentionDays)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runRetentionSweep(ctx context.Context, auditService *services.AuditService, retentionDays int) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	auditService.PurgeOldLogs(sweepCtx, retentionDays)
}
