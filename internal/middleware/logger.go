package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger emits one structured line per request. Status polling is chatty,
// so /api/status lines drop to debug level.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			evt := l.Info()
			if strings.HasPrefix(r.URL.Path, "/api/status/") {
				evt = l.Debug()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("elapsed", time.Since(start)).
				Str("request_id", RequestIDFromContext(r.Context())).
				Msg("http request")
		})
	}
}
