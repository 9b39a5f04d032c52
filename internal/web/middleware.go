package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID, or assigns one, and puts
// it on the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewRecorder(w)
		log := logger.FromContext(r.Context())

		log.Debug("dashboard request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(rec, r)

		level := log.Info
		if rec.Status >= http.StatusInternalServerError {
			level = log.Warn
		}
		level("dashboard request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", rec.Size,
		)
	})
}

// Recovery turns a handler panic into a coded 500 response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.FromContext(r.Context()).Error("handler panicked",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
			)
			apperror.WriteJSON(w, r, apperror.ErrInternal)
		}()
		next.ServeHTTP(w, r)
	})
}
