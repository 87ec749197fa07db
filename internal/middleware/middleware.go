// Package middleware holds the HTTP middleware chain of the storefront.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// AdminKeyHeader and AdminKeyCookie carry the admin key.
const (
	AdminKeyHeader = "X-Admin-Key"
	AdminKeyCookie = "admin_key"
)

// SecurityHeaders sets the response headers every HTML page is served with.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self'")
		if !isInfrastructure(r.URL.Path) {
			h.Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}

// Session attaches the browser session to the request context.
func Session(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInfrastructure(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			s := manager.Resolve(w, r)
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// Viewer identifies the caller. A request presenting the admin key in the
// X-Admin-Key header or the admin_key cookie is an admin; everyone else is
// a customer. Requests are never rejected.
func Viewer(adminKey string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var viewer model.Viewer
			if s, ok := session.FromContext(r.Context()); ok {
				viewer.SessionID = s.ID
			}

			if provided := presentedKey(r); provided != "" {
				if adminKey != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) == 1 {
					viewer.Admin = true
				} else {
					logger.Warn().
						Str("path", r.URL.Path).
						Int("key_length", len(provided)).
						Msg("invalid admin key")
				}
			}

			next.ServeHTTP(w, r.WithContext(model.WithViewer(r.Context(), viewer)))
		})
	}
}

// Logging logs HTTP requests with timing information.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			event := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("from", r.URL.Query().Get("from")).
				Int("status", rw.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		})
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		return key
	}
	if c, err := r.Cookie(AdminKeyCookie); err == nil {
		return c.Value
	}
	return ""
}

func isInfrastructure(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/static/")
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
