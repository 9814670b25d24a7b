package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigins allows browser clients from origins. No origins disables CORS.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithWriteRateLimit caps ledger-changing requests per client IP. A
// non-positive limit disables it.
func WithWriteRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		if window > 0 {
			s.writeLimit = requests
			s.writeWindow = window
		}
	}
}

func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	if len(s.corsOrigins) == 0 {
		return passthrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
}

func (s *Server) writeLimiter() func(http.Handler) http.Handler {
	if s.writeLimit <= 0 {
		return passthrough
	}
	return httprate.Limit(s.writeLimit, s.writeWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", nil)
		}),
	)
}

func passthrough(next http.Handler) http.Handler { return next }
