package classify

import (
	"regexp"
	"strings"

	"video-resolver/pkg/models"
)

// rule maps one URL pattern to the platform and kind it identifies. The
// first capture group, when present, is the canonical identifier.
type rule struct {
	pattern  *regexp.Regexp
	platform models.Platform
	kind     models.TargetKind
}

// Rules are ordered: share-style Facebook forms must be tried before the
// generic canonical forms so an opaque share ID is never mistaken for a
// video ID.
var rules = []rule{
	// Instagram post/reel/reels/tv; identifier is the shortcode between
	// the kind segment and the next slash
	{regexp.MustCompile(`https?://(?:www\.)?instagram\.com/reels?/([^/?#]+)`), models.PlatformInstagram, models.KindReel},
	{regexp.MustCompile(`https?://(?:www\.)?instagram\.com/p/([^/?#]+)`), models.PlatformInstagram, models.KindPost},
	{regexp.MustCompile(`https?://(?:www\.)?instagram\.com/tv/([^/?#]+)`), models.PlatformInstagram, models.KindPost},

	// Facebook share links carry an opaque alphanumeric ID that needs
	// resolution before extraction
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/share/r/([^/?#]+)`), models.PlatformFacebook, models.KindShareLink},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/share/v/([^/?#]+)`), models.PlatformFacebook, models.KindShareLink},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/share/reel/([^/?#]+)`), models.PlatformFacebook, models.KindShareLink},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/share/([^/?#]+)`), models.PlatformFacebook, models.KindShareLink},

	// Facebook canonical forms
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/reel/(\d+)`), models.PlatformFacebook, models.KindReel},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/[^/?#]+/videos/(\d+)`), models.PlatformFacebook, models.KindPost},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/watch/?\?v=(\d+)`), models.PlatformFacebook, models.KindPost},
	{regexp.MustCompile(`https?://(?:www\.|m\.|web\.)?facebook\.com/video\.php\?v=(\d+)`), models.PlatformFacebook, models.KindPost},
	{regexp.MustCompile(`https?://fb\.watch/([^/?#]+)`), models.PlatformFacebook, models.KindPost},
}

// Classify matches a raw URL against the ordered pattern rules and returns
// the canonical target. The second return value is false when no pattern
// matches; callers must surface a client error and perform no network I/O
// in that case.
func Classify(rawURL string) (models.CanonicalTarget, bool) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return models.CanonicalTarget{}, false
	}

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		identifier := ""
		if len(m) > 1 {
			identifier = m[1]
		}

		return models.CanonicalTarget{
			Platform:      r.platform,
			Kind:          r.kind,
			Identifier:    identifier,
			NormalizedURL: trimmed,
		}, true
	}

	return models.CanonicalTarget{}, false
}

// IsCanonicalFacebookURL reports whether a URL is a Facebook form usable
// directly for markup scraping, i.e. recognized and not share-style
func IsCanonicalFacebookURL(rawURL string) bool {
	target, ok := Classify(rawURL)
	return ok && target.Platform == models.PlatformFacebook && !target.IsShareLink()
}
