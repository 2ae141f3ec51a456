package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-indieauth-server/indieauth"
	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorResponse maps an engine error onto a status, an OAuth error code and
// a client-safe description.
func errorResponse(err error) (int, string, string) {
	var missing *apperrors.MissingParameterError
	var invalidGrant *apperrors.InvalidGrantError

	switch {
	case apperrors.As(err, &missing):
		return http.StatusBadRequest, indieauth.ErrorInvalidRequest, missing.Error()
	case apperrors.As(err, &invalidGrant):
		return http.StatusBadRequest, indieauth.ErrorInvalidGrant, invalidGrant.Reason
	case apperrors.Is(err, apperrors.ErrInvalidGrant):
		return http.StatusBadRequest, indieauth.ErrorInvalidGrant, "validation failed"
	case apperrors.Is(err, apperrors.ErrInvalidUser):
		return http.StatusBadRequest, indieauth.ErrorInvalidUser, "Invalid user"
	case apperrors.Is(err, apperrors.ErrInvalidPassword):
		return http.StatusUnauthorized, indieauth.ErrorInvalidPassword, "Incorrect password. Try again."
	case apperrors.Is(err, apperrors.ErrTooManyAttempts):
		return http.StatusTooManyRequests, indieauth.ErrorTemporarilyUnavailable, "Too many attempts. Try again later."
	case apperrors.Is(err, apperrors.ErrSessionReplayDetected):
		return http.StatusForbidden, indieauth.ErrorAccessDenied, "Session revoked"
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, indieauth.ErrorInvalidToken, "The access token has expired"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusBadRequest, indieauth.ErrorInvalidRequest, ""
	}
	return http.StatusInternalServerError, indieauth.ErrorServerError, ""
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code, description := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSONError(w, code, description, status)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, indieauth.ErrorResponse{Error: errorCode, ErrorDescription: description})
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
