package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"vidshelf-backend/internal/models"
)

// YouTubeService looks up display metadata (duration, views) for an
// identifier already in the collection. It is never used as a validator.
type YouTubeService struct {
	ytClient *yt.Client
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		ytClient: &yt.Client{HTTPClient: &http.Client{Timeout: 30 * time.Second}},
	}
}

func (s *YouTubeService) GetVideoMetadata(ctx context.Context, identifier string) (*models.YouTubeMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, identifier)
	if err != nil {
		if errors.Is(err, yt.ErrInvalidCharactersInVideoID) || errors.Is(err, yt.ErrVideoIDMinLength) {
			return nil, &NotFoundError{Message: "Video not found"}
		}
		return nil, unavailable(fmt.Errorf("failed to fetch YouTube video metadata: %w", err))
	}

	return &models.YouTubeMetadata{
		YouTubeLinks:    LinksFor(video.ID),
		Title:           video.Title,
		Author:          video.Author,
		Description:     video.Description,
		DurationSeconds: int(video.Duration / time.Second),
		Views:           video.Views,
	}, nil
}
