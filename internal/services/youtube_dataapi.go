package services

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// DataAPIValidator checks videos through the YouTube Data API v3. It is used
// instead of oEmbed when an API key is configured.
type DataAPIValidator struct {
	Client *youtube.Service
}

func NewDataAPIValidator(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPIValidator, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube service: %w", err)
	}
	return &DataAPIValidator{Client: client}, nil
}

func (v *DataAPIValidator) Validate(ctx context.Context, rawURL string) error {
	videoID := NormalizeYouTubeURL(rawURL)

	response, err := v.Client.Videos.
		List([]string{"id"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return unavailable(fmt.Errorf("videos.list for %q: %w", videoID, err))
	}

	if len(response.Items) == 0 {
		return fmt.Errorf("%w: no video with id %q", ErrVideoRejected, videoID)
	}
	return nil
}
