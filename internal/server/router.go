package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Routes builds the HTTP handler with middleware and every route.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestID)
	r.Use(s.accessLog)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Group(func(wr chi.Router) {
		if s.cfg.RateLimitPerMin > 0 {
			wr.Use(httprate.LimitByIP(s.cfg.RateLimitPerMin, time.Minute))
		}
		wr.Post("/v1/infer", s.handleInfer)
		wr.Post("/v1/match", s.handleMatch)
		wr.Post("/v1/xls/sheets", s.handleSheets)
		wr.Post("/v1/xls/extract", s.handleExtract)
		wr.Post("/v1/enrich", s.handleEnrich)
	})

	r.Get("/v1/runs", s.handleRuns)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}
