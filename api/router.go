package api

import (
	"net/http"
	"pagelab/api/router/handlers"
	"pagelab/config"
	"pagelab/logger"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP handler: crawler endpoints, report pages, the JSON API and /metrics.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if origins := config.AppConfig.Server.CORSAllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Content-Encoding"},
			MaxAge:         300,
		}))
		logger.Info("NewRouter: CORS enabled for %v", origins)
	}

	r.Group(func(r chi.Router) {
		if limit := config.AppConfig.Ingest.RateLimitPerMinute; limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		handlers.RegisterCollectRoutes(r)
	})
	handlers.RegisterQueueRoutes(r)
	handlers.RegisterReportRoutes(r)

	r.Route("/api", func(r chi.Router) {
		handlers.RegisterHealthRoutes(r)
		handlers.RegisterVersionRoutes(r)
		handlers.RegisterReadRoutes(r)
		handlers.RegisterURLRoutes(r)
		handlers.RegisterFilterRoutes(r)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Unhandled route: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return r
}
