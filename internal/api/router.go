// internal/api/router.go
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credisynth-qaa/internal/analysis"
	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/common/database"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/common/observability"
)

// Server wires the analysis service into the HTTP surface.
type Server struct {
	cfg    *config.Config
	svc    *analysis.Service
	db     *database.PostgresClient
	obs    *observability.Observability
	logger logger.Logger
}

func NewServer(cfg *config.Config, svc *analysis.Service, db *database.PostgresClient, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{cfg: cfg, svc: svc, db: db, obs: obs, logger: log}
}

// Router builds the chi mux with the full route surface.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Millisecond))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/analyze/{analysis_id}", s.handleGetAnalysis)
		r.Post("/analyze/async", s.handleAnalyzeAsync)
		r.Get("/jobs/{job_id}", s.handleJobStatus)
		r.Get("/models", s.handleModels)
	})

	return r
}
