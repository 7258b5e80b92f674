package instagram

import "testing"

func TestParseMarkupVideoPatterns(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		want    string
		pattern string
	}{
		{
			"video_url json field",
			`{"video_url":"https://x.cdn/video.mp4","display_url":"https://x.cdn/thumb.jpg"}`,
			"https://x.cdn/video.mp4",
			"video_url",
		},
		{
			"playback_url json field",
			`{"playback_url":"https://scontent.cdninstagram.com/v/abc"}`,
			"https://scontent.cdninstagram.com/v/abc",
			"playback_url",
		},
		{
			"video_versions array",
			`{"video_versions":[{"width":720,"url":"https://x.cdn/hd.mp4"},{"url":"https://x.cdn/sd.mp4"}]}`,
			"https://x.cdn/hd.mp4",
			"video_versions",
		},
		{
			"og video meta",
			`<meta property="og:video" content="https://x.cdn/og.mp4">`,
			"https://x.cdn/og.mp4",
			"og_video",
		},
		{
			"generic mp4 src",
			`<video src="https://x.cdn/clip.mp4?token=1"></video>`,
			"https://x.cdn/clip.mp4?token=1",
			"mp4_src",
		},
	}

	for _, tt := range tests {
		result, ok := parseMarkup(tt.markup)
		if !ok {
			t.Errorf("%s: expected a match, got none", tt.name)
			continue
		}
		if result.VideoURL != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, result.VideoURL)
		}
		if result.PatternName != tt.pattern {
			t.Errorf("%s: expected pattern %s, got %s", tt.name, tt.pattern, result.PatternName)
		}
	}
}

func TestParseMarkupNormalizesEscapes(t *testing.T) {
	markup := `{"video_url":"https:\/\/x.cdn\/video.mp4?a=1&b=2"}`

	result, ok := parseMarkup(markup)
	if !ok {
		t.Fatal("expected a match")
	}
	want := "https://x.cdn/video.mp4?a=1&b=2"
	if result.VideoURL != want {
		t.Errorf("expected %q, got %q", want, result.VideoURL)
	}
}

func TestParseMarkupRejectsImplausibleURL(t *testing.T) {
	// Matches the contentUrl pattern but carries no video indicator
	markup := `{"contentUrl":"https://example.com/page.html"}`

	if _, ok := parseMarkup(markup); ok {
		t.Error("expected no match for a non-video URL")
	}
}

func TestParseMarkupScriptTagRescan(t *testing.T) {
	markup := `<html><body><p>nothing here</p>` +
		`<script type="application/json">{"videoUrl":"https://x.cdn/s.mp4"}</script></body></html>`

	result, ok := parseMarkup(markup)
	if !ok {
		t.Fatal("expected a match from script tag contents")
	}
	if result.VideoURL != "https://x.cdn/s.mp4" {
		t.Errorf("unexpected video url: %s", result.VideoURL)
	}
}

func TestParseMarkupThumbnail(t *testing.T) {
	markup := `{"video_url":"https://x.cdn/v.mp4","thumbnail_url":"https://x.cdn/t.jpg"}`

	result, ok := parseMarkup(markup)
	if !ok {
		t.Fatal("expected a match")
	}
	if result.Thumbnail != "https://x.cdn/t.jpg" {
		t.Errorf("expected thumbnail, got %q", result.Thumbnail)
	}
}

func TestParseMarkupRejectsRelativeURL(t *testing.T) {
	if _, ok := parseMarkup(`<video src="/clips/v.mp4"></video>`); ok {
		t.Error("expected no match for a relative video reference")
	}
}

func TestParseMarkupSkipsRelativeCandidateForAbsoluteFallback(t *testing.T) {
	markup := `{"video_url":"/clips/v.mp4"}<video src="https://x.cdn/clip.mp4"></video>`

	result, ok := parseMarkup(markup)
	if !ok {
		t.Fatal("expected a match from the absolute candidate")
	}
	if result.VideoURL != "https://x.cdn/clip.mp4" {
		t.Errorf("unexpected video url: %s", result.VideoURL)
	}
	if result.PatternName != "mp4_src" {
		t.Errorf("expected mp4_src pattern, got %s", result.PatternName)
	}
}

func TestParseMarkupNoMatch(t *testing.T) {
	if _, ok := parseMarkup(`<html><body>hello</body></html>`); ok {
		t.Error("expected no match for plain markup")
	}
}
