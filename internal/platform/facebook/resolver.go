package facebook

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"video-resolver/internal/upstream"
	"video-resolver/internal/utils"
	"video-resolver/pkg/models"
)

const failureMessage = "Unable to fetch Facebook video. The post may be private or unavailable."

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// Resolver drives the Facebook strategy chain. Share-style targets are
// first converted to canonical URLs by the share resolver; both the
// original and the resolved URL are remembered so a failed first pass can
// retry a reduced strategy subset against the original.
type Resolver struct {
	shares         models.ShareResolver
	api            *upstream.ResolverAPI
	client         *utils.HTTPClient
	baseURL        string
	mobileBaseURL  string
	mirrorEndpoint string
	timeout        time.Duration
	logger         zerolog.Logger
}

// Config configures the Facebook resolver
type Config struct {
	ShareResolver     models.ShareResolver
	ResolverAPI       *upstream.ResolverAPI
	UserAgent         string
	ProxyURL          string
	StrategyTimeout   time.Duration
	OutboundPerSecond int

	// MirrorEndpoint is the third-party mirror search endpoint; empty
	// disables the mirror strategy
	MirrorEndpoint string

	// BaseURL and MobileBaseURL override the platform origins, used by
	// tests
	BaseURL       string
	MobileBaseURL string
}

// NewResolver creates a Facebook resolution orchestrator
func NewResolver(cfg Config) *Resolver {
	timeout := cfg.StrategyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.facebook.com"
	}

	mirror := cfg.MirrorEndpoint
	if mirror == "" {
		mirror = "https://www.ssvid.net/api/ajax/search"
	}

	return &Resolver{
		shares: cfg.ShareResolver,
		api:    cfg.ResolverAPI,
		client: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:           timeout,
			ProxyURL:          cfg.ProxyURL,
			UserAgent:         cfg.UserAgent,
			FollowRedirects:   true,
			OutboundPerSecond: cfg.OutboundPerSecond,
		}),
		baseURL:        baseURL,
		mobileBaseURL:  cfg.MobileBaseURL,
		mirrorEndpoint: mirror,
		timeout:        timeout,
		logger:         zerolog.New(os.Stdout).With().Timestamp().Str("component", "facebook").Logger(),
	}
}

// GetName returns the platform name
func (r *Resolver) GetName() models.Platform {
	return models.PlatformFacebook
}

type strategyFunc struct {
	name string
	run  func(context.Context, string) (*models.ExtractionOutcome, error)
}

// Resolve runs the strategy chain against the classified target
func (r *Resolver) Resolve(ctx context.Context, target models.CanonicalTarget) *models.ResolutionResult {
	originalURL := target.NormalizedURL
	resolvedURL := originalURL

	if target.IsShareLink() && r.shares != nil {
		resolvedURL = r.shares.ResolveShareURL(ctx, originalURL)
	}

	fullChain := []strategyFunc{
		{"embed_player", r.extractViaEmbedPlayer},
		{"resolver_api", r.extractViaResolverAPI},
		{"mobile_scrape", r.extractViaMobileScrape},
		{"mirror_site", r.extractViaMirrorSite},
	}

	if outcome := r.runChain(ctx, fullChain, resolvedURL); outcome != nil {
		return models.Success(r.backfillThumbnail(ctx, outcome, originalURL))
	}

	// Second pass: reduced subset against the original URL when share
	// resolution rewrote it
	if resolvedURL != originalURL {
		reducedChain := []strategyFunc{
			{"resolver_api", r.extractViaResolverAPI},
			{"mirror_site", r.extractViaMirrorSite},
		}
		if outcome := r.runChain(ctx, reducedChain, originalURL); outcome != nil {
			return models.Success(r.backfillThumbnail(ctx, outcome, originalURL))
		}
	}

	return models.Failure(models.ErrNotFound, failureMessage)
}

// runChain tries each strategy in order; the first non-empty video URL
// short-circuits the rest
func (r *Resolver) runChain(ctx context.Context, chain []strategyFunc, videoURL string) *models.ExtractionOutcome {
	for _, s := range chain {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		outcome, err := s.run(sctx, videoURL)
		cancel()

		if err != nil {
			r.logger.Debug().
				Str("strategy", s.name).
				Str("url", videoURL).
				Err(err).
				Msg("Extraction strategy inconclusive")
			continue
		}
		if outcome == nil || outcome.VideoURL == "" {
			continue
		}

		r.logger.Info().
			Str("strategy", s.name).
			Str("url", videoURL).
			Str("quality", string(outcome.Quality)).
			Msg("Video URL extracted")
		return outcome
	}
	return nil
}

// backfillThumbnail attempts one best-effort Open Graph image fetch from the
// original URL when the winning outcome carries no thumbnail. A backfill
// miss never fails the overall result.
func (r *Resolver) backfillThumbnail(ctx context.Context, outcome *models.ExtractionOutcome, originalURL string) *models.ExtractionOutcome {
	if outcome.ThumbnailURL != "" {
		return outcome
	}

	bctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	markup, err := r.client.GetBody(bctx, originalURL, nil)
	if err != nil {
		r.logger.Debug().Str("url", originalURL).Err(err).Msg("Thumbnail backfill miss")
		return outcome
	}

	if m := ogImagePattern.FindStringSubmatch(markup); m != nil {
		outcome.ThumbnailURL = unescapeMarkupURL(m[1])
	}
	return outcome
}
