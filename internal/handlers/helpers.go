package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quantumfield-backend/internal/models"
	"quantumfield-backend/internal/services"
	"quantumfield-backend/internal/session"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func lookupSession(w http.ResponseWriter, r *http.Request, sessions *session.Store) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return nil, false
	}

	sess, ok := sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return nil, false
	}

	return sess, true
}

// handleServiceError maps the service error taxonomy onto HTTP responses.
// Remote service messages are surfaced verbatim; transport failures get a
// generic message. No error here is fatal to the session.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidConfig *services.InvalidConfigurationError
		missingCred   *services.MissingCredentialError
		remoteErr     *services.RemoteServiceError
		networkErr    *services.NetworkError
	)

	switch {
	case errors.As(err, &invalidConfig):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", invalidConfig.Message, r))
	case errors.As(err, &missingCred):
		writeJSON(w, http.StatusUnauthorized, errorResp("MISSING_CREDENTIAL", "No API key configured. Add one to the session configuration.", r))
	case errors.As(err, &remoteErr):
		writeJSON(w, http.StatusBadGateway, errorResp("REMOTE_SERVICE_ERROR", remoteErr.Message, r))
	case errors.As(err, &networkErr):
		writeJSON(w, http.StatusBadGateway, errorResp("NETWORK_ERROR", "Could not reach the chat service. Please try again.", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
