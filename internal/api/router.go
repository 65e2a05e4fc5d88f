package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/inauto/garage-booking/internal/auth"
	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/chatbot"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/payment"
	"github.com/inauto/garage-booking/internal/relay"
)

type RouterConfig struct {
	Bookings *booking.Service
	Payments *payment.Service
	Chatbot  *chatbot.Responder
	Profiles ProfileStore
	Admin    *auth.Admin
	Hub      *relay.Hub
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *logging.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Public surface
	r.Post("/appointments", createAppointmentHandler(cfg.Bookings))
	r.Post("/chat", chatHandler(cfg.Chatbot))
	r.Post("/payments/checkout", checkoutHandler(cfg.Payments))
	r.Get("/payments/{id}", getPaymentHandler(cfg.Payments))
	r.Put("/profiles/{id}", upsertProfileHandler(cfg.Profiles))
	r.Post("/admin/login", adminLoginHandler(cfg.Admin))

	// Admin surface
	r.Group(func(r chi.Router) {
		r.Use(cfg.Admin.Middleware)

		r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
		r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Bookings))
		r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Bookings))
		r.Post("/payments/{id}/refund", refundPaymentHandler(cfg.Payments))
		r.Get("/profiles/{id}", getProfileHandler(cfg.Profiles))
		r.Get("/admin/stream", adminStreamHandler(cfg.Hub, cfg.Bookings, cfg.Logger))
	})

	return r
}
