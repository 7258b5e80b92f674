package facebook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"video-resolver/internal/upstream"
	"video-resolver/pkg/models"
)

// stubShareResolver returns a fixed resolution for any share URL
type stubShareResolver struct {
	resolved string
}

func (s *stubShareResolver) ResolveShareURL(_ context.Context, rawURL string) string {
	if s.resolved == "" {
		return rawURL
	}
	return s.resolved
}

func reelTarget(url string) models.CanonicalTarget {
	return models.CanonicalTarget{
		Platform:      models.PlatformFacebook,
		Kind:          models.KindReel,
		Identifier:    "123456789",
		NormalizedURL: url,
	}
}

func shareTarget(url string) models.CanonicalTarget {
	return models.CanonicalTarget{
		Platform:      models.PlatformFacebook,
		Kind:          models.KindShareLink,
		Identifier:    "XyZ9",
		NormalizedURL: url,
	}
}

func TestExtractFromFacebookMarkupPrefersHD(t *testing.T) {
	markup := `{"browser_native_sd_url":"https:\/\/cdn.fb\/sd.mp4","browser_native_hd_url":"https:\/\/cdn.fb\/hd.mp4"}`

	outcome := extractFromFacebookMarkup(markup, "test")
	if outcome == nil {
		t.Fatal("expected a match")
	}
	if outcome.VideoURL != "https://cdn.fb/hd.mp4" {
		t.Errorf("expected HD url, got %s", outcome.VideoURL)
	}
	if outcome.Quality != models.QualityHD {
		t.Errorf("expected HD quality, got %s", outcome.Quality)
	}
}

func TestExtractFromFacebookMarkupFallsBackToSD(t *testing.T) {
	markup := `{"browser_native_sd_url":"https:\/\/cdn.fb\/sd.mp4"}`

	outcome := extractFromFacebookMarkup(markup, "test")
	if outcome == nil {
		t.Fatal("expected a match")
	}
	if outcome.VideoURL != "https://cdn.fb/sd.mp4" {
		t.Errorf("expected SD url, got %s", outcome.VideoURL)
	}
	if outcome.Quality != models.QualitySD {
		t.Errorf("expected SD quality, got %s", outcome.Quality)
	}
}

func TestExtractFromFacebookMarkupRejectsRelativeURL(t *testing.T) {
	markup := `{"browser_native_hd_url":"\/video\/hd.mp4"}`

	if outcome := extractFromFacebookMarkup(markup, "test"); outcome != nil {
		t.Fatalf("expected no outcome for a relative URL, got %q", outcome.VideoURL)
	}
}

func TestExtractFromFacebookMarkupRelativeHDFallsToAbsoluteSD(t *testing.T) {
	markup := `{"browser_native_hd_url":"\/video\/hd.mp4","browser_native_sd_url":"https:\/\/cdn.fb\/sd.mp4"}`

	outcome := extractFromFacebookMarkup(markup, "test")
	if outcome == nil {
		t.Fatal("expected the absolute SD url to win")
	}
	if outcome.VideoURL != "https://cdn.fb/sd.mp4" {
		t.Errorf("unexpected video url: %s", outcome.VideoURL)
	}
	if outcome.Quality != models.QualitySD {
		t.Errorf("expected SD quality, got %s", outcome.Quality)
	}
}

func TestResolveShortCircuitsOnFirstWin(t *testing.T) {
	mirrorCalled := false

	embedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Embed player scrape misses
		w.Write([]byte(`<html><body>no player here</body></html>`))
	}))
	defer embedSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"tunnel","url":"https://cdn.fb/api.mp4","thumb":"https://cdn.fb/t.jpg"}`))
	}))
	defer apiSrv.Close()

	mirrorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mirrorCalled = true
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer mirrorSrv.Close()

	r := NewResolver(Config{
		ResolverAPI:     upstream.NewResolverAPI(apiSrv.URL, "", 5*time.Second),
		BaseURL:         embedSrv.URL,
		MobileBaseURL:   embedSrv.URL,
		MirrorEndpoint:  mirrorSrv.URL,
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), reelTarget(embedSrv.URL+"/reel/123456789"))
	if !result.Succeeded() {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	if result.Outcome.StrategyName != "resolver_api" {
		t.Errorf("expected resolver_api win, got %s", result.Outcome.StrategyName)
	}
	if result.Outcome.Quality != models.QualityHD {
		t.Errorf("expected unconditional HD from resolver API, got %s", result.Outcome.Quality)
	}
	if mirrorCalled {
		t.Error("expected mirror strategy to be short-circuited")
	}
}

func TestResolveEmbedPlayerWin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/plugins/video.php") {
			w.Write([]byte(`{"playable_url_quality_hd":"https:\/\/cdn.fb\/embed-hd.mp4","preferred_thumbnail":{"image":{"uri":"https:\/\/cdn.fb\/th.jpg"}}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewResolver(Config{
		BaseURL:         srv.URL,
		MobileBaseURL:   srv.URL,
		MirrorEndpoint:  srv.URL + "/mirror",
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), reelTarget(srv.URL+"/reel/123456789"))
	if !result.Succeeded() {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	if result.Outcome.VideoURL != "https://cdn.fb/embed-hd.mp4" {
		t.Errorf("unexpected video url: %s", result.Outcome.VideoURL)
	}
	if result.Outcome.ThumbnailURL != "https://cdn.fb/th.jpg" {
		t.Errorf("unexpected thumbnail: %s", result.Outcome.ThumbnailURL)
	}
}

func TestResolveThumbnailBackfill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/plugins/video.php") {
			// Winning outcome without a thumbnail
			w.Write([]byte(`{"browser_native_hd_url":"https:\/\/cdn.fb\/v.mp4"}`))
			return
		}
		// Original URL fetch during backfill
		w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.fb/backfilled.jpg"></head></html>`))
	}))
	defer srv.Close()

	r := NewResolver(Config{
		BaseURL:         srv.URL,
		MobileBaseURL:   srv.URL,
		MirrorEndpoint:  srv.URL + "/mirror",
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), reelTarget(srv.URL+"/reel/123456789"))
	if !result.Succeeded() {
		t.Fatalf("expected success, got failure: %s", result.Message)
	}
	if result.Outcome.ThumbnailURL != "https://cdn.fb/backfilled.jpg" {
		t.Errorf("expected backfilled thumbnail, got %q", result.Outcome.ThumbnailURL)
	}
}

func TestResolveBackfillMissStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/plugins/video.php") {
			w.Write([]byte(`{"browser_native_hd_url":"https:\/\/cdn.fb\/v.mp4"}`))
			return
		}
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewResolver(Config{
		BaseURL:         srv.URL,
		MobileBaseURL:   srv.URL,
		MirrorEndpoint:  srv.URL + "/mirror",
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), reelTarget(srv.URL+"/reel/123456789"))
	if !result.Succeeded() {
		t.Fatalf("expected success despite backfill miss, got: %s", result.Message)
	}
	if result.Outcome.ThumbnailURL != "" {
		t.Errorf("expected absent thumbnail, got %q", result.Outcome.ThumbnailURL)
	}
}

func TestResolveSecondPassAgainstOriginalURL(t *testing.T) {
	var mirrorQueries []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mirror" {
			r.ParseForm()
			query := r.PostFormValue("query")
			mirrorQueries = append(mirrorQueries, query)
			if strings.Contains(query, "/share/") {
				// Only the original share URL is known to the mirror
				w.Write([]byte(`{"status":"ok","data":{"thumbnail":"https://cdn.fb/t.jpg","links":{"video":[{"q_text":"HD 720p","url":"https://cdn.fb/mirror.mp4"}]}}}`))
				return
			}
			w.Write([]byte(`{"status":"ok","data":{"links":{"video":[]}}}`))
			return
		}
		// Embed and mobile scrapes miss everywhere
		w.Write([]byte(`<html><body>nothing</body></html>`))
	}))
	defer srv.Close()

	originalURL := srv.URL + "/share/r/XyZ9/"
	r := NewResolver(Config{
		ShareResolver:   &stubShareResolver{resolved: srv.URL + "/reel/987654321"},
		BaseURL:         srv.URL,
		MobileBaseURL:   srv.URL,
		MirrorEndpoint:  srv.URL + "/mirror",
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), shareTarget(originalURL))
	if !result.Succeeded() {
		t.Fatalf("expected second-pass success, got: %s", result.Message)
	}
	if result.Outcome.VideoURL != "https://cdn.fb/mirror.mp4" {
		t.Errorf("unexpected video url: %s", result.Outcome.VideoURL)
	}
	if result.Outcome.Quality != models.QualityHD {
		t.Errorf("expected HD from labeled mirror link, got %s", result.Outcome.Quality)
	}
	if len(mirrorQueries) != 2 {
		t.Fatalf("expected mirror to see resolved then original URL, got %v", mirrorQueries)
	}
	if !strings.Contains(mirrorQueries[1], "/share/") {
		t.Errorf("expected second pass against original URL, got %s", mirrorQueries[1])
	}
}

func TestResolveExhaustedReturnsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/mirror" {
			w.Write([]byte(`{"status":"ok","data":{"links":{"video":[]}}}`))
			return
		}
		w.Write([]byte(`<html><body>nothing</body></html>`))
	}))
	defer srv.Close()

	r := NewResolver(Config{
		ShareResolver:   &stubShareResolver{},
		BaseURL:         srv.URL,
		MobileBaseURL:   srv.URL,
		MirrorEndpoint:  srv.URL + "/mirror",
		StrategyTimeout: 5 * time.Second,
	})

	result := r.Resolve(context.Background(), shareTarget(srv.URL+"/share/r/XyZ9/"))
	if result.Succeeded() {
		t.Fatal("expected failure")
	}
	if result.Kind != models.ErrNotFound {
		t.Errorf("expected not_found, got %s", result.Kind)
	}
	if result.Message != failureMessage {
		t.Errorf("unexpected failure message: %s", result.Message)
	}
}
