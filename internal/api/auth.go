package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/nb-core/internal/auth"
)

// Client-facing messages.
const (
	msgRegistered         = "Registrazione avvenuta con successo"
	msgLoggedIn           = "Login avvenuto con successo"
	msgMissingFields      = "Email e password sono obbligatori"
	msgEmailTaken         = "Un utente con questa email esiste già"
	msgInvalidCredentials = "Credenziali non valide"
	msgInvalidToken       = "Token non valido"
	msgAuthRequired       = "Autenticazione richiesta"
	msgInvalidBody        = "Corpo della richiesta non valido"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"nome"`
	LastName  string `json:"cognome"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    *auth.User `json:"user"`
}

type meResponse struct {
	User *auth.User `json:"user"`
}

// handleRegister creates an account and returns its token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeAccountRequest(w, r, &req) {
		return
	}

	session, err := s.accounts.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		s.writeAccountError(w, r, "register", err)
		return
	}

	s.metrics.accountAttempts.WithLabelValues("register", "success").Inc()
	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: msgRegistered,
		Token:   session.Token,
		User:    session.User,
	})
}

// handleLogin exchanges email and password for the user's token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAccountRequest(w, r, &req) {
		return
	}

	session, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeAccountError(w, r, "login", err)
		return
	}

	s.metrics.accountAttempts.WithLabelValues("login", "success").Inc()
	writeJSON(w, http.StatusOK, sessionResponse{
		Message: msgLoggedIn,
		Token:   session.Token,
		User:    session.User,
	})
}

// handleMe returns the user authenticated by tokenAuthMiddleware.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, msgAuthRequired)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user})
}

// decodeAccountRequest reads a JSON object body into dst. An empty body
// decodes as an empty object so the service reports the missing fields.
func (s *Server) decodeAccountRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, msgInvalidBody)
			return false
		}
		// An empty chunked body reads as EOF.
		if errors.Is(err, io.EOF) {
			return true
		}
		writeBadRequest(w, ErrCodeBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// writeAccountError maps account service errors onto HTTP responses.
func (s *Server) writeAccountError(w http.ResponseWriter, r *http.Request, action string, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, auth.ErrValidation):
		outcome = "invalid"
		writeBadRequest(w, ErrCodeValidation, msgMissingFields)
	case errors.Is(err, auth.ErrConflict):
		outcome = "conflict"
		writeBadRequest(w, ErrCodeConflict, msgEmailTaken)
	case errors.Is(err, auth.ErrInvalidCredentials):
		outcome = "rejected"
		writeUnauthorized(w, msgInvalidCredentials)
	case errors.Is(err, auth.ErrTokenInvalid):
		outcome = "rejected"
		writeUnauthorized(w, msgInvalidToken)
	default:
		s.logger.Error("account operation failed",
			"action", action,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, err.Error())
	}
	s.metrics.accountAttempts.WithLabelValues(action, outcome).Inc()
}
