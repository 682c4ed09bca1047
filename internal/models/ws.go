package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type      string      `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`
	Payload   interface{} `json:"payload"`
}

const WSTypeState = "state"

type SessionResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	State     CollectionState `json:"state"`
}

type YouTubeLinks struct {
	Identifier   string `json:"identifier"`
	ThumbnailURL string `json:"thumbnail_url"`
	EmbedURL     string `json:"embed_url"`
}

type YouTubeMetadata struct {
	YouTubeLinks
	Title           string `json:"title"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"duration_seconds"`
	Views           int    `json:"views"`
}
