package instagram

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"video-resolver/internal/upstream"
	"video-resolver/internal/utils"
	"video-resolver/pkg/models"
)

const failureMessage = "Unable to fetch video. The post may be private or unavailable."

// User agents tried in order by the direct-scrape strategy. Crawler agents
// tend to receive server-rendered markup with the video URL inlined.
var scrapeUserAgents = []string{
	"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
}

const mobileAppUserAgent = "Instagram 301.0.0.29.110 (iPhone14,3; iOS 17_0; en_US) AppleWebKit/420+"

// Resolver drives the Instagram strategy chain: delegated browser backend
// first, then the local embed / direct-scrape / oEmbed chain. Strategies run
// sequentially and the first non-empty video URL wins.
type Resolver struct {
	client  *utils.HTTPClient
	browser *upstream.BrowserBackend
	baseURL string
	timeout time.Duration
	logger  zerolog.Logger
}

// Config configures the Instagram resolver
type Config struct {
	BrowserBackend    *upstream.BrowserBackend
	UserAgent         string
	ProxyURL          string
	StrategyTimeout   time.Duration
	OutboundPerSecond int

	// BaseURL overrides the platform origin, used by tests
	BaseURL string
}

// NewResolver creates an Instagram resolution orchestrator
func NewResolver(cfg Config) *Resolver {
	timeout := cfg.StrategyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.instagram.com"
	}

	return &Resolver{
		client: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:           timeout,
			ProxyURL:          cfg.ProxyURL,
			UserAgent:         cfg.UserAgent,
			FollowRedirects:   true,
			OutboundPerSecond: cfg.OutboundPerSecond,
		}),
		browser: cfg.BrowserBackend,
		baseURL: baseURL,
		timeout: timeout,
		logger:  zerolog.New(os.Stdout).With().Timestamp().Str("component", "instagram").Logger(),
	}
}

// GetName returns the platform name
func (r *Resolver) GetName() models.Platform {
	return models.PlatformInstagram
}

// Resolve runs the strategy chain against the classified target
func (r *Resolver) Resolve(ctx context.Context, target models.CanonicalTarget) *models.ResolutionResult {
	// Delegated browser backend wins immediately when it reports success
	if r.browser != nil && r.browser.Configured() {
		outcome, err := r.extractViaBackend(ctx, target.NormalizedURL)
		if err != nil {
			r.logger.Warn().Err(err).Str("url", target.NormalizedURL).Msg("Browser backend unavailable, falling back to local strategies")
		} else if outcome != nil {
			return models.Success(outcome)
		}
	}

	type strategy struct {
		name string
		run  func(context.Context, models.CanonicalTarget) (*models.ExtractionOutcome, error)
	}

	chain := []strategy{
		{"embed", r.extractViaEmbed},
		{"direct_scrape", r.extractViaDirectScrape},
		{"oembed", r.extractViaOEmbed},
	}

	for _, s := range chain {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		outcome, err := s.run(sctx, target)
		cancel()

		if err != nil {
			r.logger.Debug().
				Str("strategy", s.name).
				Str("url", target.NormalizedURL).
				Err(err).
				Msg("Extraction strategy inconclusive")
			continue
		}
		if outcome == nil || outcome.VideoURL == "" {
			continue
		}

		r.logger.Info().
			Str("strategy", s.name).
			Str("url", target.NormalizedURL).
			Msg("Video URL extracted")
		return models.Success(outcome)
	}

	return models.Failure(models.ErrNotFound, failureMessage)
}

// extractViaBackend delegates extraction to the headless-browser backend.
// The backend returns no thumbnail; callers may enrich later.
func (r *Resolver) extractViaBackend(ctx context.Context, postURL string) (*models.ExtractionOutcome, error) {
	resp, err := r.browser.Extract(ctx, postURL)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.VideoURL == "" {
		return nil, nil
	}

	return &models.ExtractionOutcome{
		VideoURL:     resp.VideoURL,
		Quality:      models.QualityHD,
		StrategyName: "browser_backend",
	}, nil
}

// extractViaEmbed fetches the public embed endpoint for the identifier and
// pattern-extracts a video URL and thumbnail from its markup
func (r *Resolver) extractViaEmbed(ctx context.Context, target models.CanonicalTarget) (*models.ExtractionOutcome, error) {
	if target.Identifier == "" {
		return nil, fmt.Errorf("no identifier for embed endpoint")
	}

	embedURL := fmt.Sprintf("%s/p/%s/embed/captioned/", r.baseURL, target.Identifier)
	markup, err := r.client.GetBody(ctx, embedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching embed markup: %w", err)
	}

	return r.outcomeFromMarkup(markup, "embed")
}

// extractViaDirectScrape fetches the canonical post URL, retrying across a
// fixed list of user agents until one returns markup containing a video URL.
// When every agent misses, a secondary embed attempt runs.
func (r *Resolver) extractViaDirectScrape(ctx context.Context, target models.CanonicalTarget) (*models.ExtractionOutcome, error) {
	var lastErr error
	for _, agent := range scrapeUserAgents {
		markup, err := r.client.GetBody(ctx, target.NormalizedURL, map[string]string{
			"User-Agent": agent,
		})
		if err != nil {
			lastErr = err
			continue
		}

		outcome, err := r.outcomeFromMarkup(markup, "direct_scrape")
		if err == nil && outcome != nil {
			return outcome, nil
		}
	}

	// Secondary embed attempt once direct scraping is exhausted
	if outcome, err := r.extractViaEmbed(ctx, target); err == nil && outcome != nil {
		return outcome, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("direct scrape exhausted: %w", lastErr)
	}
	return nil, nil
}

// extractViaOEmbed calls the platform oEmbed endpoint and parses the
// returned embed markup, falling back to a mobile-app user-agent scrape of
// the canonical URL when the embed HTML holds no video tag
func (r *Resolver) extractViaOEmbed(ctx context.Context, target models.CanonicalTarget) (*models.ExtractionOutcome, error) {
	oembedURL := utils.BuildURL(r.baseURL+"/api/v1/oembed/", map[string]string{
		"url": target.NormalizedURL,
	})

	body, err := r.client.GetBody(ctx, oembedURL, nil)
	if err == nil {
		if outcome, perr := r.outcomeFromMarkup(body, "oembed"); perr == nil && outcome != nil {
			return outcome, nil
		}
	}

	// Mobile app user agent sometimes gets markup the web agents do not
	markup, err := r.client.GetBody(ctx, target.NormalizedURL, map[string]string{
		"User-Agent": mobileAppUserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("mobile scrape failed: %w", err)
	}

	return r.outcomeFromMarkup(markup, "oembed_mobile")
}

// outcomeFromMarkup converts a markup parse hit into an outcome. Structured
// JSON fields carry max-quality playback URLs and are tagged HD; a bare mp4
// reference is tagged SD.
func (r *Resolver) outcomeFromMarkup(markup, strategyName string) (*models.ExtractionOutcome, error) {
	result, ok := parseMarkup(markup)
	if !ok {
		return nil, nil
	}

	quality := models.QualityHD
	if result.PatternName == "mp4_src" {
		quality = models.QualitySD
	}

	return &models.ExtractionOutcome{
		VideoURL:     result.VideoURL,
		ThumbnailURL: result.Thumbnail,
		Quality:      quality,
		StrategyName: strategyName,
	}, nil
}
