package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/server/chat"
	"github.com/dmitrijs2005/barbot/internal/server/services"
)

const maxBodyBytes = 1 << 20

const welcomeMessage = "Welcome to the Barbot API! Send POST requests to /chat to interact with the mixologist."

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Response map[string]any `json:"response"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleToken implements the OAuth2 password grant form.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form body")
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	tokens, err := s.users.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			writeUnauthorized(w, detailBadCredentials)
			return
		}
		s.metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		s.writeError(w, r, err)
		return
	}

	s.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, TokenType: tokens.TokenType})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	u, err := s.users.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcomeOf(err)).Inc()
		s.writeError(w, r, err)
		return
	}

	s.metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, u.View())
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, detailNotValidated)
		return
	}
	writeJSON(w, http.StatusOK, u.View())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reply, err := s.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		s.metrics.ChatRequestsTotal.WithLabelValues(outcomeOf(err)).Inc()
		s.writeError(w, r, err)
		return
	}

	s.metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed JSON body")
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, common.ErrorConflict):
		return "conflict"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	case errors.Is(err, chat.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, chat.ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}
