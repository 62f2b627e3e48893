package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/app"
	"github.com/mabuhotel/booking-backend/internal/config"
	"github.com/mabuhotel/booking-backend/internal/db"
	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
	"github.com/mabuhotel/booking-backend/internal/reconcile"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.IsProduction); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Get().Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	container, err := app.NewContainer(cfg, pool)
	if err != nil {
		logger.Get().Fatal("failed to build application", zap.Error(err))
	}

	// Scheduled reconciliation sweep, enabled by RECONCILE_CRON.
	var scheduler *cron.Cron
	if cfg.ReconcileCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.ReconcileCron, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			result, err := container.ReconcileRunner.Run(runCtx, reconcile.RunOptions{
				WindowDays:          cfg.ReconcileWindowDays,
				PendingTimeoutHours: cfg.ReconcilePendingTimeoutHours,
			})
			if err != nil {
				logger.Get().Error("scheduled reconciliation failed", zap.Error(err))
				return
			}
			if result.Summary.IssueCount > 0 {
				logger.Get().Warn("reconciliation found issues",
					zap.Int("issueCount", result.Summary.IssueCount),
					zap.String("report", reconcile.FormatReport(result.Result)))
				return
			}
			logger.Get().Info("reconciliation clean",
				zap.Int("scannedBookings", result.Summary.ScannedBookings),
				zap.Int("scannedBookingRequests", result.Summary.ScannedBookingRequests))
		})
		if err != nil {
			logger.Get().Fatal("invalid RECONCILE_CRON", zap.Error(err))
		}
		scheduler.Start()
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		logger.Get().Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Get().Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Get().Info("shutdown signal received")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Get().Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Get().Info("server exited gracefully")
}
