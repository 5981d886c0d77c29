package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/nerrad567/nb-core/internal/auth"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUser      contextKey = "user"
)

// maxRequestIDLength bounds client-supplied request IDs echoed in logs.
const maxRequestIDLength = 64

// requestIDMiddleware tags each request with an ID. A client-supplied
// X-Request-ID is kept when it is short and printable; otherwise a UUID is
// generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler { //nolint:errorlint // sentinel re-panicked as-is
					panic(err)
				}
				s.metrics.panicRecoveries.Inc()
				s.logger.Error("panic recovered in HTTP handler",
					"error", fmt.Sprint(err),
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware returns the rs/cors handler for the configured policy.
// An empty origin list allows every origin.
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: orDefault(s.cfg.CORS.AllowedOrigins, []string{"*"}),
		AllowedMethods: orDefault(s.cfg.CORS.AllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		AllowedHeaders: orDefault(s.cfg.CORS.AllowedHeaders, []string{"Authorization", "Content-Type", "X-Request-ID"}),
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	})
	return c.Handler
}

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests above the configured global rate.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow() {
			s.metrics.rateLimitRejects.Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Troppe richieste, riprova più tardi")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.cfg.RateLimit.RequestsPerSecond))
		next.ServeHTTP(w, r)
	})
}

// tokenAuthMiddleware requires "Authorization: Token <key>" and stores the
// authenticated user in the request context.
func (s *Server) tokenAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := parseTokenHeader(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w, msgAuthRequired)
			return
		}

		user, err := s.accounts.Authenticate(r.Context(), key)
		if err != nil {
			s.writeAccountError(w, r, "authenticate", err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseTokenHeader extracts the key from "Token <key>". The keyword is
// matched case-insensitively.
func parseTokenHeader(header string) (string, bool) {
	keyword, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(keyword, "Token") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	return key, true
}

// userFromContext returns the user set by tokenAuthMiddleware.
func userFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(ctxKeyUser).(*auth.User)
	return u
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func orDefault(values, defaults []string) []string {
	if len(values) == 0 {
		return defaults
	}
	return values
}
