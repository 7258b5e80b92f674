package shareresolver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"video-resolver/internal/classify"
	"video-resolver/internal/upstream"
	"video-resolver/internal/utils"
)

// Resolver converts an opaque Facebook share URL into a canonical, directly
// fetchable Facebook URL. Strategies run in a fixed order, each bounded by
// its own timeout; a strategy failure is inconclusive, never fatal. When the
// whole chain misses, the original URL is returned unchanged so downstream
// extraction can still attempt it blind.
type Resolver struct {
	api          *upstream.ResolverAPI
	browser      *upstream.BrowserBackend
	manualClient *utils.HTTPClient
	followClient *utils.HTTPClient
	timeout      time.Duration
	logger       zerolog.Logger
}

// Config configures the share-link resolver
type Config struct {
	ResolverAPI     *upstream.ResolverAPI
	BrowserBackend  *upstream.BrowserBackend
	UserAgent       string
	ProxyURL        string
	StrategyTimeout time.Duration
}

// NewResolver creates a share-link resolver
func NewResolver(cfg Config) *Resolver {
	timeout := cfg.StrategyTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &Resolver{
		api:     cfg.ResolverAPI,
		browser: cfg.BrowserBackend,
		manualClient: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:         timeout,
			ProxyURL:        cfg.ProxyURL,
			UserAgent:       cfg.UserAgent,
			FollowRedirects: false,
		}),
		followClient: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:         timeout,
			ProxyURL:        cfg.ProxyURL,
			UserAgent:       cfg.UserAgent,
			FollowRedirects: true,
		}),
		timeout: timeout,
		logger:  zerolog.New(os.Stdout).With().Timestamp().Str("component", "share_resolver").Logger(),
	}
}

// ResolveShareURL runs the strategy chain and returns the first canonical
// URL found, or rawURL itself when every strategy misses
func (r *Resolver) ResolveShareURL(ctx context.Context, rawURL string) string {
	type strategy struct {
		name string
		run  func(context.Context, string) (string, error)
	}

	chain := []strategy{
		{"resolver_probe", r.probeOriginal},
		{"base62_transcode", r.transcodeIdentifier},
		{"redirect_trace", r.traceRedirects},
		{"browser_probe", r.probeBrowser},
	}

	for _, s := range chain {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		resolved, err := s.run(sctx, rawURL)
		cancel()

		if err != nil {
			r.logger.Debug().
				Str("strategy", s.name).
				Str("url", rawURL).
				Err(err).
				Msg("Share resolution strategy inconclusive")
			continue
		}
		if resolved == "" {
			continue
		}

		r.logger.Info().
			Str("strategy", s.name).
			Str("url", rawURL).
			Str("resolved", resolved).
			Msg("Share URL resolved")
		return resolved
	}

	r.logger.Warn().Str("url", rawURL).Msg("Share URL unresolved, keeping original")
	return rawURL
}

// probeOriginal asks the delegated resolver API whether it can already
// handle the share URL as-is. A resolvable status means no URL rewrite is
// needed. Note this trusts the probe without fetching actual bytes; a later
// proxy fetch can still fail.
func (r *Resolver) probeOriginal(ctx context.Context, rawURL string) (string, error) {
	if r.api == nil || !r.api.Configured() {
		return "", fmt.Errorf("resolver API not configured")
	}

	resp, err := r.api.Resolve(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !resp.Resolvable() {
		return "", nil
	}
	return rawURL, nil
}

// transcodeIdentifier decodes the opaque share ID as a base-62 integer,
// builds a canonical reel URL from the decimal value, and keeps it only
// when the resolver API confirms the constructed URL is itself resolvable
func (r *Resolver) transcodeIdentifier(ctx context.Context, rawURL string) (string, error) {
	target, ok := classify.Classify(rawURL)
	if !ok || !target.IsShareLink() || target.Identifier == "" {
		return "", fmt.Errorf("no share identifier in URL")
	}

	numericID, err := DecodeBase62(target.Identifier)
	if err != nil {
		return "", fmt.Errorf("error transcoding share identifier: %w", err)
	}

	candidate := fmt.Sprintf("https://www.facebook.com/reel/%s", numericID)

	if r.api == nil || !r.api.Configured() {
		return "", fmt.Errorf("resolver API not configured for verification")
	}

	resp, err := r.api.Resolve(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !resp.Resolvable() {
		return "", nil
	}
	return candidate, nil
}

// traceRedirects issues a manual request to read the Location header, then
// follows redirects fully, then scans the returned markup, accepting the
// first canonical URL found at any step
func (r *Resolver) traceRedirects(ctx context.Context, rawURL string) (string, error) {
	// Manual request first: a canonical Location header is the cheapest win
	resp, err := r.manualClient.Get(ctx, rawURL, nil)
	if err == nil {
		location := resp.Header.Get("Location")
		resp.Body.Close()
		if location != "" && classify.IsCanonicalFacebookURL(location) {
			return location, nil
		}
	}

	// Follow redirects fully and inspect where we landed
	full, err := r.followClient.Get(ctx, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("error following redirects: %w", err)
	}
	defer full.Body.Close()

	finalURL := full.Request.URL.String()
	if classify.IsCanonicalFacebookURL(finalURL) {
		return finalURL, nil
	}

	if full.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", full.StatusCode)
	}

	markup, err := utils.ReadBody(full, 10<<20)
	if err != nil {
		return "", err
	}

	return r.scanMarkup(markup)
}

var (
	metaRefreshURLPattern = regexp.MustCompile(`(?i)url=([^;"'\s]+)`)
	embeddedIDPatterns    = []struct {
		pattern  *regexp.Regexp
		template string
	}{
		{regexp.MustCompile(`/reel/(\d{6,})`), "https://www.facebook.com/reel/%s"},
		{regexp.MustCompile(`/videos/(\d{6,})`), "https://www.facebook.com/watch?v=%s"},
		{regexp.MustCompile(`(?:video_id|fbid|v)=(\d{6,})`), "https://www.facebook.com/watch?v=%s"},
	}
)

// scanMarkup looks for, in order: a meta-refresh target, an Open Graph or
// canonical URL tag, then an embedded numeric video/reel/fbid identifier
func (r *Resolver) scanMarkup(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("error parsing markup: %w", err)
	}

	// Meta refresh
	refreshTarget := ""
	doc.Find(`meta[http-equiv]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := s.Attr("content")
		if m := metaRefreshURLPattern.FindStringSubmatch(content); m != nil {
			refreshTarget = m[1]
			return false
		}
		return true
	})
	if refreshTarget != "" && classify.IsCanonicalFacebookURL(refreshTarget) {
		return refreshTarget, nil
	}

	// Open Graph / canonical tags
	if ogURL, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		if classify.IsCanonicalFacebookURL(ogURL) {
			return ogURL, nil
		}
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if classify.IsCanonicalFacebookURL(canonical) {
			return canonical, nil
		}
	}

	// Embedded numeric identifiers
	for _, p := range embeddedIDPatterns {
		if m := p.pattern.FindStringSubmatch(markup); m != nil {
			return fmt.Sprintf(p.template, m[1]), nil
		}
	}

	return "", nil
}

// probeBrowser forwards the raw URL to the browser-automation backend and
// accepts its resolved URL when canonical. Skipped silently when the
// backend is unconfigured.
func (r *Resolver) probeBrowser(ctx context.Context, rawURL string) (string, error) {
	if r.browser == nil || !r.browser.Configured() {
		return "", nil
	}

	resp, err := r.browser.Extract(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.VideoURL == "" {
		return "", nil
	}
	if !classify.IsCanonicalFacebookURL(resp.VideoURL) {
		return "", nil
	}
	return resp.VideoURL, nil
}
