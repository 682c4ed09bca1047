package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/services"
)

type metadataFetcher interface {
	GetVideoMetadata(ctx context.Context, identifier string) (*models.YouTubeMetadata, error)
}

type YouTubeHandler struct {
	metadata metadataFetcher
}

func NewYouTubeHandler(metadata metadataFetcher) *YouTubeHandler {
	return &YouTubeHandler{metadata: metadata}
}

// Normalize reports the identifier a URL would be stored under. Nothing is
// validated remotely.
func (h *YouTubeHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "url query parameter is required", r))
		return
	}
	writeJSON(w, http.StatusOK, services.LinksFor(services.NormalizeYouTubeURL(raw)))
}

func (h *YouTubeHandler) Details(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing video identifier", r))
		return
	}

	meta, err := h.metadata.GetVideoMetadata(r.Context(), identifier)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}
