package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vidshelf-backend/internal/handlers"
	"vidshelf-backend/internal/middleware"
	"vidshelf-backend/internal/services"
	"vidshelf-backend/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	youtubeHandler *handlers.YouTubeHandler,
	sessions *services.SessionStore,
	wsHub *websocket.Hub,
	frontendURL string,
	development bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.EchoRequestID)
	r.Use(middleware.CORS(frontendURL, development))

	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health)

		// ──── YouTube Routes ────
		r.Route("/youtube", func(r chi.Router) {
			r.Get("/normalize", youtubeHandler.Normalize)
			r.Get("/{identifier}/details", youtubeHandler.Details)
		})

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.End)

				r.Get("/videos", sessionHandler.ListVideos)
				r.Post("/videos", sessionHandler.AddVideo)
				r.Delete("/videos/{id}", sessionHandler.DeleteVideo)

				// ──── WebSocket ────
				r.Get("/ws", wsHub.Handler(sessions))
			})
		})
	})

	return r
}
