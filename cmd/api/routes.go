package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
)

// NewRouter mounts every handler behind the shared middleware chain.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler)
	r.Use(interceptors.Logger(d.Logger))
	if d.Config.Observability.MetricsEnabled {
		r.Use(interceptors.Metrics)
	}
	r.Use(interceptors.RateLimit(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", d.AuthHandler.Routes)

		r.Group(func(r chi.Router) {
			r.Use(interceptors.RequireAuth(d.AuthService))

			r.Get("/me", d.AuthHandler.Me)
			r.Route("/chat", d.ChatHandler.Routes)
			r.Route("/transactions", d.TransactionsHandler.Routes)
			r.Route("/uploads", d.ImportHandler.Routes)
			r.Route("/budget", d.BudgetHandler.Routes)
		})
	})

	return r
}
