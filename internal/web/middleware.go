package web

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	correlationIDKey contextKey = "X-Correlation-ID"
	sessionKey       contextKey = "session"
)

// CorrelationID returns the request's correlation ID, or "" outside a request
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// AddCorrelationID reuses the caller's X-Correlation-ID or generates one
func AddCorrelationID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(string(correlationIDKey))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(string(correlationIDKey), correlationID)
		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusWriter) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

// Logging writes one line per request
func Logging(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		entry := log.WithFields(log.Fields{
			"correlation_id": CorrelationID(r.Context()),
			"method":         r.Method,
			"path":           r.URL.Path,
			"status":         sw.statusCode,
			"duration":       time.Since(start),
		})
		if sw.statusCode >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Info("Request served")
		}
	}
	return http.HandlerFunc(fn)
}

// Recovery turns a handler panic into a 500 response
func Recovery(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.WithField("correlation_id", CorrelationID(r.Context())).
					Errorf("Caught panic: %v, stack trace: %s", err, debug.Stack())
				writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
