package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/inauto/garage-booking/internal/api"
	"github.com/inauto/garage-booking/internal/auth"
	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/chatbot"
	"github.com/inauto/garage-booking/internal/config"
	"github.com/inauto/garage-booking/internal/db"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/payment"
	"github.com/inauto/garage-booking/internal/profile"
	"github.com/inauto/garage-booking/internal/relay"
	redisclient "github.com/inauto/garage-booking/internal/redis"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

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

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	// Booking intake gate over the appointment store.
	apptRepo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	bookings := booking.NewService(apptRepo, locker, cfg.SlotCapacity, logger)

	// Payment flow: simulated mobile money, Stripe for cards when configured.
	gateway := &payment.MethodRouter{
		MobileMoney: payment.NewSimulatedGateway(cfg.GatewaySuccessRate, 2*time.Second, time.Now().UnixNano(), logger),
	}
	if cfg.StripeAPIKey != "" {
		gateway.Card = payment.NewStripeGateway(cfg.StripeAPIKey, logger)
		logger.Info("stripe card gateway enabled")
	}
	payRepo := payment.NewPgRepository(pgPool)
	payments := payment.NewService(payRepo, apptRepo, gateway, cfg.Currency, cfg.PaymentTTL, logger)

	// Change feed: Postgres NOTIFY -> hub -> admin sockets.
	hub := relay.NewHub()
	listener := relay.NewListener(pgPool, hub, logger)
	go func() {
		if err := listener.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change feed listener stopped", "error", err)
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Bookings: bookings,
		Payments: payments,
		Chatbot:  chatbot.NewResponder(),
		Profiles: profile.NewPgRepository(pgPool),
		Admin:    auth.NewAdmin(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTTTL),
		Hub:      hub,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		log.Fatalf("http server error: %v", err)
	case <-rootCtx.Done():
	}

	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
