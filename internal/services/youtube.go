package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidshelf-backend/internal/models"
)

const DefaultOEmbedEndpoint = "https://www.youtube.com/oembed"

// Validator confirms that a submitted URL points at a real, accessible video.
// It returns nil when the video exists, ErrVideoRejected when the provider
// says it does not, and an *UnavailableError when the provider can't be reached.
type Validator interface {
	Validate(ctx context.Context, rawURL string) error
}

type ValidatorFunc func(ctx context.Context, rawURL string) error

func (f ValidatorFunc) Validate(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// NormalizeYouTubeURL extracts the bare video id from any supported YouTube
// URL shape. Anything it does not recognise is returned unchanged.
func NormalizeYouTubeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	path := u.EscapedPath()

	switch strings.ToLower(u.Hostname()) {
	case "youtu.be":
		return strings.TrimPrefix(path, "/")
	case "youtube.com", "www.youtube.com":
		if path == "/watch" {
			if v, ok := queryValue(u.RawQuery, "v"); ok {
				return v
			}
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/v/"} {
			if strings.HasPrefix(path, prefix) {
				return strings.Split(path, prefix)[1]
			}
		}
	}

	return rawURL
}

// queryValue returns the first value for key. Only '&' separates pairs, so a
// value such as "abc123;x=1" is kept whole, unlike url.ParseQuery.
func queryValue(rawQuery, key string) (string, bool) {
	for _, pair := range strings.Split(rawQuery, "&") {
		name, value, _ := strings.Cut(pair, "=")
		if unescapeQuery(name) == key {
			return unescapeQuery(value), true
		}
	}
	return "", false
}

func unescapeQuery(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}

func ThumbnailURL(identifier string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", identifier)
}

func EmbedURL(identifier string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=1&rel=0", identifier)
}

func LinksFor(identifier string) models.YouTubeLinks {
	return models.YouTubeLinks{
		Identifier:   identifier,
		ThumbnailURL: ThumbnailURL(identifier),
		EmbedURL:     EmbedURL(identifier),
	}
}

// OEmbedValidator asks the public oEmbed endpoint about the raw URL. Any
// non-2xx answer means the video is rejected.
type OEmbedValidator struct {
	httpClient *http.Client
	endpoint   string
}

func NewOEmbedValidator(endpoint string, httpClient *http.Client) *OEmbedValidator {
	if endpoint == "" {
		endpoint = DefaultOEmbedEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OEmbedValidator{httpClient: httpClient, endpoint: endpoint}
}

func (v *OEmbedValidator) Validate(ctx context.Context, rawURL string) error {
	lookupURL := v.endpoint + "?url=" + url.QueryEscape(rawURL) + "&format=json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return unavailable(fmt.Errorf("failed to build oEmbed request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return unavailable(fmt.Errorf("oEmbed lookup failed: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: oEmbed returned HTTP %d", ErrVideoRejected, resp.StatusCode)
	}
	return nil
}
