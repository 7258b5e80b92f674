package instagram

import (
	"regexp"
	"strings"

	"video-resolver/internal/utils"
)

// Markup parsing shared by the embed, direct-scrape and oEmbed strategies.
// Patterns are ordered: structured JSON fields first, Open Graph tags next,
// generic mp4 references last. A candidate only wins when it also looks
// like a video URL (mp4 suffix, "video" substring, or a known CDN host).

var videoPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"video_url", regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`)},
	{"playback_url", regexp.MustCompile(`"playback_url"\s*:\s*"([^"]+)"`)},
	{"videoUrl", regexp.MustCompile(`"videoUrl"\s*:\s*"([^"]+)"`)},
	{"contentUrl", regexp.MustCompile(`"contentUrl"\s*:\s*"([^"]+)"`)},
	{"video_versions", regexp.MustCompile(`"video_versions"\s*:\s*\[\s*{[^}]*?"url"\s*:\s*"([^"]+)"`)},
	{"og_video", regexp.MustCompile(`<meta\s+property="og:video(?::secure_url)?"\s+content="([^"]+)"`)},
	{"mp4_src", regexp.MustCompile(`(?:src|href)="([^"]+\.mp4[^"]*)"`)},
}

var thumbnailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"thumbnail_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"display_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`<meta\s+property="og:image"\s+content="([^"]+)"`),
	regexp.MustCompile(`"thumbnail_src"\s*:\s*"([^"]+)"`),
}

var scriptTagPattern = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)

var videoIndicators = []string{".mp4", "video", "cdninstagram", "fbcdn"}

// parseResult carries what the markup scan found
type parseResult struct {
	VideoURL    string
	Thumbnail   string
	PatternName string
}

// normalizeEscapes rewrites escaped JSON unicode sequences so patterns can
// match URLs embedded inside script blobs
func normalizeEscapes(markup string) string {
	replacer := strings.NewReplacer(
		`\u0026`, "&",
		`\u002F`, "/",
		`\u002f`, "/",
		`\/`, "/",
		`&amp;`, "&",
	)
	return replacer.Replace(markup)
}

// looksLikeVideo reports whether a matched URL carries a plausible video
// indicator
func looksLikeVideo(url string) bool {
	lower := strings.ToLower(url)
	for _, indicator := range videoIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// parseMarkup scans markup for a video URL and thumbnail. When the raw
// markup yields nothing, isolated script-tag contents are re-scanned on
// their own.
func parseMarkup(markup string) (parseResult, bool) {
	normalized := normalizeEscapes(markup)

	if result, ok := scan(normalized); ok {
		return result, true
	}

	// Re-scan script tag contents only
	for _, m := range scriptTagPattern.FindAllStringSubmatch(normalized, -1) {
		if result, ok := scan(m[1]); ok {
			return result, true
		}
	}

	return parseResult{}, false
}

func scan(markup string) (parseResult, bool) {
	for _, vp := range videoPatterns {
		m := vp.pattern.FindStringSubmatch(markup)
		if m == nil {
			continue
		}
		candidate := m[1]
		if candidate == "" || !looksLikeVideo(candidate) {
			continue
		}
		// A winning outcome always carries an absolute http(s) URL;
		// relative references from embed players are useless downstream
		if !utils.IsAbsoluteHTTPURL(candidate) {
			continue
		}

		result := parseResult{
			VideoURL:    candidate,
			PatternName: vp.name,
		}
		for _, tp := range thumbnailPatterns {
			if tm := tp.FindStringSubmatch(markup); tm != nil {
				result.Thumbnail = tm[1]
				break
			}
		}
		return result, true
	}

	return parseResult{}, false
}
