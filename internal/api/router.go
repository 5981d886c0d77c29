package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware; recovery sits inside metrics and logging so a
	// recovered panic is still counted as a 500.
	r.Use(s.requestIDMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		get(r, "/ricette/", s.handleListRecipes)

		post(r, "/auth/register/", s.handleRegister)
		post(r, "/auth/login/", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.tokenAuthMiddleware)
			get(r, "/auth/me/", s.handleMe)
		})

		for _, stub := range assistantStubs {
			post(r, stub.path, s.handleAssistantStub(stub))
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Risorsa non trovata")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Metodo non consentito")
	})

	return r
}

// get registers h for path with and without its trailing slash.
func get(r chi.Router, path string, h http.HandlerFunc) {
	r.Get(path, h)
	r.Get(trimSlash(path), h)
}

// post registers h for path with and without its trailing slash.
func post(r chi.Router, path string, h http.HandlerFunc) {
	r.Post(path, h)
	r.Post(trimSlash(path), h)
}

func trimSlash(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}
