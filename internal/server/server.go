// Package server exposes the criteria pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/dispatch"
	"github.com/joseph-ayodele/criteria-extractor/internal/enrich"
	"github.com/joseph-ayodele/criteria-extractor/internal/export"
	"github.com/joseph-ayodele/criteria-extractor/internal/pipeline"
	"github.com/joseph-ayodele/criteria-extractor/internal/repository"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

// Deps are the services behind the handlers. Dispatch and Runs may be nil.
type Deps struct {
	Infer    *pipeline.InferService
	Match    *pipeline.MatchService
	XLS      *xls.Service
	Enrich   *enrich.Processor
	Export   *export.Service
	Dispatch *dispatch.Client
	Runs     repository.RunRepository
}

type Server struct {
	cfg      common.ServerConfig
	dispatch common.DispatchConfig
	deps     Deps
	logger   *slog.Logger
}

func New(cfg common.ServerConfig, dcfg common.DispatchConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Export == nil {
		deps.Export = export.NewService(logger)
	}
	return &Server{cfg: cfg, dispatch: dcfg, deps: deps, logger: logger}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listen", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("server.shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}
