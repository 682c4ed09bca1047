package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/services"
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
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrSessionLimit) {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SESSION_LIMIT", "Too many active sessions. Please try again later.", r))
		return
	}

	switch e := err.(type) {
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnavailableError:
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_UNAVAILABLE", "YouTube could not be reached", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
