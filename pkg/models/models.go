package models

import (
	"fmt"
)

// Platform represents the supported platforms
type Platform string

const (
	PlatformInstagram    Platform = "instagram"
	PlatformFacebook     Platform = "facebook"
	PlatformUnrecognized Platform = ""
)

// TargetKind represents the kind of link a URL was classified as
type TargetKind string

const (
	KindPost      TargetKind = "post"
	KindReel      TargetKind = "reel"
	KindShareLink TargetKind = "share"
)

// Quality represents the quality tier of an extracted video
type Quality string

const (
	QualityHD      Quality = "HD"
	QualitySD      Quality = "SD"
	QualityUnknown Quality = "unknown"
)

// CanonicalTarget is the classifier's view of a raw URL. It is created once
// per request and never mutated afterwards.
type CanonicalTarget struct {
	Platform      Platform   `json:"platform"`
	Kind          TargetKind `json:"kind"`
	Identifier    string     `json:"identifier"`
	NormalizedURL string     `json:"normalized_url"`
}

// IsShareLink reports whether the target still needs share-link resolution
// before extraction strategies can run
func (t CanonicalTarget) IsShareLink() bool {
	return t.Kind == KindShareLink
}

// ExtractionOutcome is the result produced by exactly one winning strategy.
// VideoURL is always an absolute HTTP(S) URL; ThumbnailURL may be backfilled
// once by the orchestrator but the outcome is otherwise immutable.
type ExtractionOutcome struct {
	VideoURL        string  `json:"video_url"`
	ThumbnailURL    string  `json:"thumbnail_url,omitempty"`
	Quality         Quality `json:"quality"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	StrategyName    string  `json:"strategy_name"`
}

// ErrorKind classifies terminal resolution failures
type ErrorKind string

const (
	ErrInvalidURL    ErrorKind = "invalid_url"
	ErrRateLimited   ErrorKind = "rate_limited"
	ErrNotFound      ErrorKind = "not_found"
	ErrInternalError ErrorKind = "internal_error"
)

// HTTPStatus maps an error kind to the status code surfaced to clients
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrInvalidURL:
		return 400
	case ErrRateLimited:
		return 429
	case ErrNotFound:
		return 404
	default:
		return 500
	}
}

// ResolutionResult is the terminal value of one resolution request: either
// a winning outcome or a classified failure
type ResolutionResult struct {
	Outcome *ExtractionOutcome
	Kind    ErrorKind
	Message string
}

// Succeeded reports whether the resolution produced a usable video URL
func (r *ResolutionResult) Succeeded() bool {
	return r.Outcome != nil && r.Outcome.VideoURL != ""
}

// Success wraps a winning outcome into a terminal result
func Success(outcome *ExtractionOutcome) *ResolutionResult {
	return &ResolutionResult{Outcome: outcome}
}

// Failure creates a terminal failure result
func Failure(kind ErrorKind, message string) *ResolutionResult {
	return &ResolutionResult{Kind: kind, Message: message}
}

// ResolutionRequest is the immutable per-call input to the engine
type ResolutionRequest struct {
	RawURL   string `json:"url"`
	ClientID string `json:"-"`
}

// Envelope is the caller-facing response shape. Optional fields are omitted
// rather than invented.
type Envelope struct {
	Success   bool    `json:"success"`
	VideoURL  string  `json:"video_url,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Quality   Quality `json:"quality,omitempty"`
	Duration  string  `json:"duration,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// FormatDuration renders a raw seconds count as minutes:seconds with
// zero-padded seconds, e.g. 95 -> "1:35"
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Host         string `mapstructure:"host" yaml:"host"`
		Port         int    `mapstructure:"port" yaml:"port"`
		ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
		WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
	} `mapstructure:"server" yaml:"server"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		Output string `mapstructure:"output" yaml:"output"`
	} `mapstructure:"log" yaml:"log"`

	Proxy struct {
		Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
		URL     string `mapstructure:"url" yaml:"url"`
	} `mapstructure:"proxy" yaml:"proxy"`

	Upstream struct {
		// ResolverAPI is the delegated external video-resolution API.
		// Optional; strategies that need it fail soft when unset.
		ResolverAPI struct {
			Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
			APIKey   string `mapstructure:"api_key" yaml:"api_key"`
			Timeout  int    `mapstructure:"timeout" yaml:"timeout"`
		} `mapstructure:"resolver_api" yaml:"resolver_api"`

		// BrowserBackend is the delegated headless-browser extraction
		// backend. Optional; skipped silently when the base URL is empty.
		BrowserBackend struct {
			BaseURL string `mapstructure:"base_url" yaml:"base_url"`
			Timeout int    `mapstructure:"timeout" yaml:"timeout"`
		} `mapstructure:"browser_backend" yaml:"browser_backend"`
	} `mapstructure:"upstream" yaml:"upstream"`

	Platforms struct {
		Instagram struct {
			Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
			UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
		} `mapstructure:"instagram" yaml:"instagram"`

		Facebook struct {
			Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
			UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
		} `mapstructure:"facebook" yaml:"facebook"`
	} `mapstructure:"platforms" yaml:"platforms"`

	RateLimit struct {
		Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
		RequestsPerWindow int  `mapstructure:"requests_per_window" yaml:"requests_per_window"`
		WindowSeconds     int  `mapstructure:"window_seconds" yaml:"window_seconds"`
		OutboundPerSecond int  `mapstructure:"outbound_per_second" yaml:"outbound_per_second"`
	} `mapstructure:"rate_limit" yaml:"rate_limit"`

	Auth struct {
		Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
		JWTSecret         string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
		TokenExpiry       int    `mapstructure:"token_expiry" yaml:"token_expiry"`
		AdminPasswordHash string `mapstructure:"admin_password_hash" yaml:"admin_password_hash"`
	} `mapstructure:"auth" yaml:"auth"`

	DownloadProxy struct {
		Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
		AllowedHosts []string `mapstructure:"allowed_hosts" yaml:"allowed_hosts"`
		Timeout      int      `mapstructure:"timeout" yaml:"timeout"`
	} `mapstructure:"download_proxy" yaml:"download_proxy"`
}
