package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"vidshelf-backend/internal/models"
	"vidshelf-backend/internal/services"
)

func newStore(v services.Validator, seed bool) *services.SessionStore {
	return services.NewSessionStore(services.SessionConfig{
		Validator:        v,
		SeedDefaultVideo: seed,
	})
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func TestSessionHandler_CreateSeedsDefaultVideo(t *testing.T) {
	h := NewSessionHandler(newStore(services.ValidatorFunc(func(ctx context.Context, rawURL string) error { return nil }), true))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	var resp models.SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == uuid.Nil {
		t.Fatalf("expected a session id")
	}
	if len(resp.State.Records) != 1 || resp.State.Records[0].Identifier != "dQw4w9WgXcQ" {
		t.Fatalf("expected the default seed, got %+v", resp.State.Records)
	}
	if resp.State.Status.Kind != models.StatusIdle {
		t.Fatalf("expected idle status, got %q", resp.State.Status.Kind)
	}
}

func TestSessionHandler_AddVideo(t *testing.T) {
	var gotURL string
	store := newStore(services.ValidatorFunc(func(ctx context.Context, rawURL string) error {
		gotURL = rawURL
		return nil
	}), false)
	id, _, _ := store.Create()
	h := NewSessionHandler(store)

	body := `{"name":"Talk","description":"keynote","url":"https://www.youtube.com/watch?v=abc123&t=10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id.String()+"/videos", bytes.NewBufferString(body))
	req = withParams(req, map[string]string{"sessionID": id.String()})
	rr := httptest.NewRecorder()
	h.AddVideo(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if gotURL != "https://www.youtube.com/watch?v=abc123&t=10" {
		t.Fatalf("validator should see the raw URL, got %q", gotURL)
	}

	var resp struct {
		Video videoView              `json:"video"`
		State models.CollectionState `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Video.Identifier != "abc123" {
		t.Fatalf("expected identifier abc123, got %q", resp.Video.Identifier)
	}
	if resp.Video.EmbedURL != services.EmbedURL("abc123") {
		t.Fatalf("unexpected embed url %q", resp.Video.EmbedURL)
	}
	if len(resp.State.Records) != 1 || resp.State.IsBusy {
		t.Fatalf("unexpected state %+v", resp.State)
	}
}

func TestSessionHandler_AddVideo_RequiredFields(t *testing.T) {
	called := false
	store := newStore(services.ValidatorFunc(func(ctx context.Context, rawURL string) error {
		called = true
		return nil
	}), false)
	id, _, _ := store.Create()
	h := NewSessionHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  ","url":""}`))
	req = withParams(req, map[string]string{"sessionID": id.String()})
	rr := httptest.NewRecorder()
	h.AddVideo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	apiErr := decodeError(t, rr)
	if apiErr.Message != "Please fill in required fields." {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if _, ok := apiErr.Fields["name"]; !ok {
		t.Fatalf("expected a name field error")
	}
	if _, ok := apiErr.Fields["url"]; !ok {
		t.Fatalf("expected a url field error")
	}
	if called {
		t.Fatalf("validator must not run when fields are missing")
	}
}

func TestSessionHandler_AddVideo_Rejected(t *testing.T) {
	store := newStore(services.ValidatorFunc(func(ctx context.Context, rawURL string) error {
		return services.ErrVideoRejected
	}), false)
	id, m, _ := store.Create()
	h := NewSessionHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"x","url":"https://youtu.be/nope"}`))
	req = withParams(req, map[string]string{"sessionID": id.String()})
	rr := httptest.NewRecorder()
	h.AddVideo(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rr.Code)
	}
	apiErr := decodeError(t, rr)
	if apiErr.Code != "INVALID_VIDEO" || apiErr.Message != services.InvalidVideoMessage {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if len(m.State().Records) != 0 {
		t.Fatalf("rejected video must not be stored")
	}
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	h := NewSessionHandler(newStore(nil, false))

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"sessionID": uuid.New().String()})
	rr := httptest.NewRecorder()
	h.ListVideos(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	req = withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"sessionID": "bogus"})
	rr = httptest.NewRecorder()
	h.Get(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestSessionHandler_DeleteVideo(t *testing.T) {
	store := newStore(nil, true)
	id, m, _ := store.Create()
	seeded := m.State().Records[0].ID
	h := NewSessionHandler(store)

	req := withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{
		"sessionID": id.String(),
		"id":        seeded.String(),
	})
	rr := httptest.NewRecorder()
	h.DeleteVideo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if len(m.State().Records) != 0 {
		t.Fatalf("expected the seed to be removed")
	}

	// unknown ids are a no-op, not an error
	req = withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{
		"sessionID": id.String(),
		"id":        uuid.New().String(),
	})
	rr = httptest.NewRecorder()
	h.DeleteVideo(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestSessionHandler_ListAndEnd(t *testing.T) {
	store := newStore(nil, true)
	id, _, _ := store.Create()
	h := NewSessionHandler(store)

	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"sessionID": id.String()})
	rr := httptest.NewRecorder()
	h.ListVideos(rr, req)

	var resp struct {
		Videos []videoView `json:"videos"`
		Busy   bool        `json:"busy"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].ThumbnailURL != services.ThumbnailURL("dQw4w9WgXcQ") {
		t.Fatalf("unexpected videos %+v", resp.Videos)
	}

	req = withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"sessionID": id.String()})
	rr = httptest.NewRecorder()
	h.End(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.End(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d on second end, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSessionHandler_AddVideo_BodyTooLarge(t *testing.T) {
	called := false
	store := newStore(services.ValidatorFunc(func(ctx context.Context, rawURL string) error {
		called = true
		return nil
	}), false)
	id, m, _ := store.Create()
	h := NewSessionHandler(store)

	body := `{"name":"x","url":"https://youtu.be/abc123","description":"` + strings.Repeat("a", maxAddVideoBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withParams(req, map[string]string{"sessionID": id.String()})
	rr := httptest.NewRecorder()
	h.AddVideo(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
	if called || len(m.State().Records) != 0 {
		t.Fatalf("oversized body must not reach the validator")
	}
}

func TestSessionHandler_CreateAtLimit(t *testing.T) {
	store := services.NewSessionStore(services.SessionConfig{MaxSessions: 1})
	h := NewSessionHandler(store)

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "SESSION_LIMIT" {
		t.Fatalf("unexpected error code %q", apiErr.Code)
	}
}

func TestSessionHandler_ErrorCarriesRequestID(t *testing.T) {
	h := NewSessionHandler(newStore(nil, false))

	var rr *httptest.ResponseRecorder
	handler := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Get(w, withParams(r, map[string]string{"sessionID": uuid.New().String()}))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if apiErr := decodeError(t, rr); apiErr.RequestID != "req-42" {
		t.Fatalf("expected request id req-42, got %q", apiErr.RequestID)
	}
}
