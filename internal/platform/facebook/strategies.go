package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"video-resolver/internal/utils"
	"video-resolver/pkg/models"
)

// Each strategy parses for HD-tier markers first and falls back to SD-tier
// markers only when no HD marker is present.

var hdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"browser_native_hd_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"playable_url_quality_hd"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`hd_src(?:_no_ratelimit)?\s*:\s*"([^"]+)"`),
}

var sdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"browser_native_sd_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"playable_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`sd_src(?:_no_ratelimit)?\s*:\s*"([^"]+)"`),
}

var fbThumbnailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"preferred_thumbnail"\s*:\s*{\s*"image"\s*:\s*{\s*"uri"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`),
	regexp.MustCompile(`"thumbnailImage"\s*:\s*{\s*"uri"\s*:\s*"([^"]+)"`),
}

var ogImagePattern = regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`)

// unescapeMarkupURL undoes the JSON escaping Facebook applies to URLs
// embedded in page markup
func unescapeMarkupURL(raw string) string {
	replacer := strings.NewReplacer(
		`\/`, "/",
		`&amp;`, "&",
	)
	unescaped := replacer.Replace(raw)
	// Unicode escapes survive the replacer; a JSON round trip resolves them
	var decoded string
	if err := json.Unmarshal([]byte(`"`+unescaped+`"`), &decoded); err == nil {
		return decoded
	}
	return unescaped
}

// firstPlayableMatch returns the first pattern match that unescapes to an
// absolute http(s) URL. Relative references never make a playable outcome.
func firstPlayableMatch(markup string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(markup)
		if m == nil {
			continue
		}
		if candidate := unescapeMarkupURL(m[1]); utils.IsAbsoluteHTTPURL(candidate) {
			return candidate
		}
	}
	return ""
}

// extractFromFacebookMarkup scans markup for a playable URL, HD first
func extractFromFacebookMarkup(markup, strategyName string) *models.ExtractionOutcome {
	quality := models.QualityHD
	videoURL := firstPlayableMatch(markup, hdPatterns)
	if videoURL == "" {
		quality = models.QualitySD
		videoURL = firstPlayableMatch(markup, sdPatterns)
	}
	if videoURL == "" {
		return nil
	}

	outcome := &models.ExtractionOutcome{
		VideoURL:     videoURL,
		Quality:      quality,
		StrategyName: strategyName,
	}
	for _, p := range fbThumbnailPatterns {
		if m := p.FindStringSubmatch(markup); m != nil {
			outcome.ThumbnailURL = unescapeMarkupURL(m[1])
			break
		}
	}
	return outcome
}

// extractViaEmbedPlayer scrapes the platform's embeddable video player page
func (r *Resolver) extractViaEmbedPlayer(ctx context.Context, videoURL string) (*models.ExtractionOutcome, error) {
	embedURL := fmt.Sprintf("%s/plugins/video.php?href=%s", r.baseURL, url.QueryEscape(videoURL))

	markup, err := r.client.GetBody(ctx, embedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching embed player: %w", err)
	}

	return extractFromFacebookMarkup(markup, "embed_player"), nil
}

// extractViaResolverAPI delegates to the external video-resolution API,
// which is trusted to return max quality and tagged HD unconditionally
func (r *Resolver) extractViaResolverAPI(ctx context.Context, videoURL string) (*models.ExtractionOutcome, error) {
	if r.api == nil || !r.api.Configured() {
		return nil, fmt.Errorf("resolver API not configured")
	}

	resp, err := r.api.Resolve(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	if !resp.Resolvable() || resp.URL == "" {
		return nil, nil
	}

	return &models.ExtractionOutcome{
		VideoURL:     resp.URL,
		ThumbnailURL: resp.Thumb,
		Quality:      models.QualityHD,
		StrategyName: "resolver_api",
	}, nil
}

// extractViaMobileScrape fetches the mobile-rendered markup directly; the
// mobile site inlines playable URLs more often than the desktop one
func (r *Resolver) extractViaMobileScrape(ctx context.Context, videoURL string) (*models.ExtractionOutcome, error) {
	mobileURL := strings.Replace(videoURL, "www.facebook.com", "m.facebook.com", 1)
	if r.mobileBaseURL != "" {
		if u, err := url.Parse(videoURL); err == nil {
			mobileURL = r.mobileBaseURL + u.RequestURI()
		}
	}

	markup, err := r.client.GetBody(ctx, mobileURL, map[string]string{
		"User-Agent": mobileUserAgent,
		"Accept":     "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching mobile markup: %w", err)
	}

	return extractFromFacebookMarkup(markup, "mobile_scrape"), nil
}

// mirrorResponse is the validated envelope of a mirror-site search reply
type mirrorResponse struct {
	Status string `json:"status"`
	Data   struct {
		Thumbnail string `json:"thumbnail"`
		Links     struct {
			Video []struct {
				QualityText string `json:"q_text"`
				URL         string `json:"url"`
			} `json:"video"`
		} `json:"links"`
	} `json:"data"`
}

// extractViaMirrorSite submits the URL to a third-party mirror search site
// and picks the first HD-labeled link, else the first link
func (r *Resolver) extractViaMirrorSite(ctx context.Context, videoURL string) (*models.ExtractionOutcome, error) {
	if r.mirrorEndpoint == "" {
		return nil, fmt.Errorf("mirror endpoint not configured")
	}

	form := url.Values{
		"query": {videoURL},
		"vt":    {"home"},
	}

	resp, err := r.client.Post(ctx, r.mirrorEndpoint, "application/x-www-form-urlencoded; charset=UTF-8", form.Encode(), map[string]string{
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
	})
	if err != nil {
		return nil, fmt.Errorf("error calling mirror site: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed mirrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error parsing mirror response: %w", err)
	}

	links := parsed.Data.Links.Video
	if len(links) == 0 {
		return nil, nil
	}

	chosen := links[0]
	quality := models.QualitySD
	for _, link := range links {
		if strings.Contains(strings.ToLower(link.QualityText), "hd") {
			chosen = link
			quality = models.QualityHD
			break
		}
	}
	if chosen.URL == "" {
		return nil, nil
	}

	return &models.ExtractionOutcome{
		VideoURL:     chosen.URL,
		ThumbnailURL: parsed.Data.Thumbnail,
		Quality:      quality,
		StrategyName: "mirror_site",
	}, nil
}
