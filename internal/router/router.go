package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"imvu-insight-api/internal/handler"
	"imvu-insight-api/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	HealthHandler   *handler.HealthHandler
	AuthHandler     *handler.AuthHandler
	DataSyncHandler *handler.DataSyncHandler
	QueryHandler    *handler.QueryHandler
	AuthMiddleware  func(http.Handler) http.Handler
	Logger          *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.NewRecovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.NewLogging(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	r.Get("/health", cfg.HealthHandler.Health)
	r.Get("/health/db", cfg.HealthHandler.HealthDB)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/login", cfg.AuthHandler.Login)
	r.Post("/auth/refresh", cfg.AuthHandler.Refresh)

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthMiddleware)

		r.Get("/auth/me", cfg.AuthHandler.Me)

		r.Route("/data-sync", func(r chi.Router) {
			r.Post("/product/import", cfg.DataSyncHandler.ImportProduct)
			r.Post("/income/import", cfg.DataSyncHandler.ImportIncome)
			r.Get("/list", cfg.DataSyncHandler.List)
			r.Get("/by-hash", cfg.DataSyncHandler.ByHash)
			r.Delete("/object", cfg.DataSyncHandler.Delete)
		})

		r.Post("/product/list", cfg.QueryHandler.ListProducts)
		r.Post("/imvu_user/list", cfg.QueryHandler.ListImvuUsers)
		r.Post("/buyer/list", cfg.QueryHandler.ListBuyers)
		r.Post("/recipient/list", cfg.QueryHandler.ListRecipients)
		r.Post("/income_transaction/list", cfg.QueryHandler.ListTransactions)
	})

	return r
}
