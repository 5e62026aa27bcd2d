package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

const headerRequestID = "X-Request-Id"

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				common.LoggerFromContext(r.Context(), s.logger).Error("http.panic", "recover", rec, "path", r.URL.Path)
				writeError(w, common.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID reuses an incoming X-Request-Id or mints one, and attaches a
// request-scoped logger to the context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}
		ctx := common.WithRequestID(r.Context(), rid)
		ctx = common.WithLogger(ctx, s.logger.With("req_id", rid))
		w.Header().Set(headerRequestID, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		common.LoggerFromContext(r.Context(), s.logger).Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
