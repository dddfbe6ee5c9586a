package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/metrics"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
	"github.com/frahmantamala/emspay-gateway/internal/transport/middleware"
	"github.com/frahmantamala/emspay-gateway/internal/transport/swagger"
)

// RegisterAllRoutes mounts the API. A nil paymentHandler leaves out the
// checkout routes and nil collectors leave out /metrics. checks are reported
// by /health next to the order store.
func RegisterAllRoutes(router *chi.Mux, db Pinger, paymentHandler *payment.Handler, collectors *metrics.Metrics, cfg internal.ServerConfig, logger *slog.Logger, checks ...HealthCheck) {
	healthHandler := NewHealthHandler(db, checks...)

	// Apply global middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics(collectors))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get(swagger.SpecRoute, swagger.SpecHandler(cfg.OpenAPISpec))
	router.Handle("/swagger/*", swagger.Handler())
	if collectors != nil {
		router.Handle(metrics.Route, collectors.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI servers
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		if paymentHandler != nil {
			r.Route("/checkout", func(cr chi.Router) {
				cr.Use(middleware.ClientContext)

				cr.Get("/payment-methods", paymentHandler.ListMethods)
				cr.Post("/orders/{id}/payment", paymentHandler.ProcessPayment)
				cr.Get("/orders/{id}/snapshot", paymentHandler.GetSnapshot)
				cr.Get("/order-pay/{id}", paymentHandler.ReceiptPage)
			})
		}
	})
}
