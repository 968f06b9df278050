// Package middleware provides HTTP middleware for the portal.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdanAlnoor/costportal/internal/httputil"
	"github.com/AdanAlnoor/costportal/internal/logging"
)

var validTraceID = regexp.MustCompile(`^[a-zA-Z0-9\-_]{1,128}$`)

// Trace injects a trace ID into the request context and response headers.
// Client-provided IDs are validated to prevent log injection.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" || !validTraceID.MatchString(traceID) {
			traceID = logging.NewTraceID()
		}
		w.Header().Set("X-Trace-ID", traceID)
		ctx := logging.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery catches handler panics and returns 500 instead of crashing the
// process.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.FromContext(r.Context(), log).Error().
						Interface("panic", rec).
						Str("stack", string(debug.Stack())).
						Str("path", r.URL.Path).
						Msg("recovered from panic")
					httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs each request with method, path, status and duration.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := httputil.NewStatusWriter(w)
			next.ServeHTTP(sw, r)
			logging.FromContext(r.Context(), log).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
