package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/s1natex/tasklist-GO/internal/config"
	"github.com/s1natex/tasklist-GO/internal/middleware"
	"github.com/s1natex/tasklist-GO/internal/tasks"
	"github.com/s1natex/tasklist-GO/internal/telemetry"
	"github.com/s1natex/tasklist-GO/internal/web"
)

// newRouter wires health, metrics, the JSON API under /api and the HTML page
// behind the middleware stack.
func newRouter(store *tasks.Store, logger *slog.Logger, cfg *config.Config) *chi.Mux {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(reg)
	telemetry.NewTaskGauges(reg).Watch(store)

	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	r.Use(chimw.Timeout(15 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.TracingMiddleware)
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// ---- Routes ----

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler(reg))

	auth := middleware.AuthConfig{
		Mode:        middleware.AuthMode(cfg.Auth.Mode),
		APIKey:      cfg.Auth.APIKey,
		BearerToken: cfg.Auth.BearerToken,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(auth))
		tasks.RegisterRoutes(r, store)
	})

	// the page renders for anyone who can reach it; its form actions need the
	// same credential as the API
	page := auth
	page.AnonymousReads = true
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(page))
		web.NewPage(store, logger).Routes(r)
	})
	if auth.Enabled() {
		logger.Info("page_writes_guarded", slog.String("auth_mode", cfg.Auth.Mode))
	}

	return r
}
