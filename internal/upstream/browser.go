package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"video-resolver/internal/utils"
)

// BrowserBackend is a typed client for the delegated headless-browser
// extraction backend. The backend is best effort and may be absent; every
// feature built on it degrades gracefully when BaseURL is empty.
type BrowserBackend struct {
	baseURL string
	timeout time.Duration
	client  *utils.HTTPClient
	logger  zerolog.Logger
}

// BrowserResponse is the validated envelope of a backend extraction reply
type BrowserResponse struct {
	Success  bool   `json:"success"`
	VideoURL string `json:"videoUrl"`
	Method   string `json:"method"`
}

// NewBrowserBackend creates a headless-browser backend client. Headless
// extraction can be slow, so the default timeout is generous.
func NewBrowserBackend(baseURL string, timeout time.Duration) *BrowserBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BrowserBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:         timeout,
			FollowRedirects: true,
		}),
		logger: zerolog.New(os.Stdout).With().Timestamp().Str("component", "browser_backend").Logger(),
	}
}

// Configured reports whether a backend base URL is set
func (b *BrowserBackend) Configured() bool {
	return b.baseURL != ""
}

// Extract asks the backend to extract a video URL from the post URL
func (b *BrowserBackend) Extract(ctx context.Context, postURL string) (*BrowserResponse, error) {
	if !b.Configured() {
		return nil, fmt.Errorf("browser backend not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	extractURL := utils.BuildURL(b.baseURL+"/extract", map[string]string{
		"url": postURL,
	})

	resp, err := b.client.Get(ctx, extractURL, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("error calling browser backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed BrowserResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error parsing browser backend response: %w", err)
	}

	b.logger.Debug().
		Str("url", postURL).
		Bool("success", parsed.Success).
		Str("method", parsed.Method).
		Msg("Browser backend response")

	return &parsed, nil
}
