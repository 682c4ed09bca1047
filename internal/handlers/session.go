package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/services"
)

const maxAddVideoBody = 64 << 10

type sessionStore interface {
	Create() (uuid.UUID, *services.CollectionManager, error)
	Get(id uuid.UUID) (*services.CollectionManager, error)
	End(id uuid.UUID) error
}

type SessionHandler struct {
	store sessionStore
}

func NewSessionHandler(store sessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

type addVideoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// videoView is a record plus the links a client needs to render it.
type videoView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Identifier   string    `json:"identifier"`
	ThumbnailURL string    `json:"thumbnail_url"`
	EmbedURL     string    `json:"embed_url"`
	CreatedAt    time.Time `json:"created_at"`
}

func toVideoView(rec models.VideoRecord) videoView {
	return videoView{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		Identifier:   rec.Identifier,
		ThumbnailURL: services.ThumbnailURL(rec.Identifier),
		EmbedURL:     services.EmbedURL(rec.Identifier),
		CreatedAt:    rec.CreatedAt,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, m, err := h.store.Create()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SessionResponse{SessionID: id, State: m.State()})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{SessionID: id, State: m.State()})
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}
	if err := h.store.End(id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session ended"})
}

func (h *SessionHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.lookup(w, r)
	if !ok {
		return
	}

	state := m.State()
	views := make([]videoView, 0, len(state.Records))
	for _, rec := range state.Records {
		views = append(views, toVideoView(rec))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videos": views,
		"status": state.Status,
		"busy":   state.IsBusy,
	})
}

func (h *SessionHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req addVideoRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAddVideoBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body is too large", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(req.URL) == "" {
		fields["url"] = "URL is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Please fill in required fields.", fields, r))
		return
	}

	rec, added := m.Add(r.Context(), models.Candidate{
		Name:        req.Name,
		Description: req.Description,
		URL:         strings.TrimSpace(req.URL),
	})
	state := m.State()
	if !added {
		msg := state.Status.Message
		if state.Status.Kind != models.StatusError || msg == "" {
			msg = services.InvalidVideoMessage
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("INVALID_VIDEO", msg, r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"video": toVideoView(rec),
		"state": state,
	})
}

func (h *SessionHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.lookup(w, r)
	if !ok {
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid video ID", r))
		return
	}

	m.Delete(r.Context(), videoID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *services.CollectionManager, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, nil, false
	}
	m, err := h.store.Get(id)
	if err != nil {
		handleServiceError(w, r, err)
		return uuid.Nil, nil, false
	}
	return id, m, true
}
