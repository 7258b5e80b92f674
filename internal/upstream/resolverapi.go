package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"video-resolver/internal/utils"
)

// Resolver API statuses. "redirect", "stream" and "tunnel" all mean the
// service can hand back a fetchable stream for the submitted URL.
const (
	StatusRedirect = "redirect"
	StatusStream   = "stream"
	StatusTunnel   = "tunnel"
	StatusError    = "error"
)

// ResolverAPI is a typed client for the delegated external video-resolution
// API. Every response is validated into ResolverResponse; a shape mismatch
// is reported as an error so callers treat it as strategy failure.
type ResolverAPI struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *utils.HTTPClient
	logger   zerolog.Logger
}

// ResolverRequest is the request body for the resolution API
type ResolverRequest struct {
	URL          string `json:"url"`
	VideoCodec   string `json:"videoCodec"`
	VideoQuality string `json:"videoQuality"`
}

// ResolverResponse is the validated envelope of a resolution API reply
type ResolverResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Thumb  string `json:"thumb"`
}

// Resolvable reports whether the API claims it can produce a stream
func (r *ResolverResponse) Resolvable() bool {
	switch r.Status {
	case StatusRedirect, StatusStream, StatusTunnel:
		return true
	}
	return false
}

// NewResolverAPI creates a resolution API client. An empty endpoint yields
// a client whose calls always fail soft; Configured lets callers skip it.
func NewResolverAPI(endpoint, apiKey string, timeout time.Duration) *ResolverAPI {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &ResolverAPI{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		client: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:         timeout,
			FollowRedirects: true,
		}),
		logger: zerolog.New(os.Stdout).With().Timestamp().Str("component", "resolver_api").Logger(),
	}
}

// Configured reports whether an endpoint is set
func (a *ResolverAPI) Configured() bool {
	return a.endpoint != ""
}

// Resolve submits a URL to the resolution API and returns the validated
// response. The call is bounded by the client timeout on top of ctx.
func (a *ResolverAPI) Resolve(ctx context.Context, videoURL string) (*ResolverResponse, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("resolver API endpoint not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	body, err := json.Marshal(ResolverRequest{
		URL:          videoURL,
		VideoCodec:   "h264",
		VideoQuality: "max",
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	if a.apiKey != "" {
		headers["Authorization"] = "Api-Key " + a.apiKey
	}

	resp, err := a.client.Post(ctx, a.endpoint, "application/json", string(body), headers)
	if err != nil {
		return nil, fmt.Errorf("error calling resolver API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed ResolverResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error parsing resolver API response: %w", err)
	}

	if parsed.Status == "" {
		return nil, fmt.Errorf("resolver API returned no status")
	}

	a.logger.Debug().
		Str("url", videoURL).
		Str("status", parsed.Status).
		Msg("Resolver API response")

	return &parsed, nil
}
