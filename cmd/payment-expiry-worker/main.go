package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/config"
	"github.com/inauto/garage-booking/internal/db"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/payment"
)

// Sweeps payments stuck in pending past PAYMENT_TTL: abandoned checkouts are
// failed, late gateway settlements are recorded as paid.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("payment-expiry-worker starting",
		"env", cfg.Env, "interval", cfg.WorkerInterval.String(), "payment_ttl", cfg.PaymentTTL.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	apptRepo := booking.NewPgRepository(pgPool)
	payRepo := payment.NewPgRepository(pgPool)
	gateway := payment.NewSimulatedGateway(cfg.GatewaySuccessRate, 0, time.Now().UnixNano(), logger)
	svc := payment.NewService(payRepo, apptRepo, gateway, cfg.Currency, cfg.PaymentTTL, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping payment expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *payment.Service, logger *logging.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.ExpireStalePending(runCtx); err != nil {
		logger.Error("expiry run failed", "error", err)
		return
	}
	logger.Info("expiry run complete", "duration", time.Since(start).String())
}
