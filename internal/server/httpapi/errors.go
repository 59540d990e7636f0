package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/server/chat"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
)

const (
	detailBadCredentials   = "Incorrect username or password"
	detailNotValidated     = "Could not validate credentials"
	detailNotAuthenticated = "Not authenticated"
	detailInactiveUser     = "Inactive user"
	detailUsernameTaken    = "Username already registered"
	detailEmailTaken       = "Email already registered"
	detailAlreadyExists    = "Already registered"
	detailInternal         = "Internal server error"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

// statusFor maps a service error onto a status code and client-safe
// detail. Unknown errors become 500 without leaking their text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, users.ErrUsernameTaken):
		return http.StatusBadRequest, detailUsernameTaken
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusBadRequest, detailEmailTaken
	case errors.Is(err, common.ErrorConflict):
		return http.StatusBadRequest, detailAlreadyExists
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusBadRequest, detailInactiveUser
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, detailNotValidated
	case errors.Is(err, common.ErrorValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, chat.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Chat is not configured"
	case errors.Is(err, chat.ErrUpstream):
		return http.StatusBadGateway, "Chat backend unavailable"
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	if status == http.StatusUnauthorized {
		writeUnauthorized(w, detail)
		return
	}
	writeDetail(w, status, detail)
}
