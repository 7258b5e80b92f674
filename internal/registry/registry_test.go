package registry

import (
	"context"
	"testing"

	"video-resolver/pkg/models"
)

type fakeResolver struct {
	name models.Platform
}

func (f *fakeResolver) Resolve(_ context.Context, _ models.CanonicalTarget) *models.ResolutionResult {
	return models.Success(&models.ExtractionOutcome{VideoURL: "https://cdn.example/v.mp4"})
}

func (f *fakeResolver) GetName() models.Platform {
	return f.name
}

func TestRegisterAndGetResolver(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterResolver(models.PlatformInstagram, &fakeResolver{name: models.PlatformInstagram}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolver, err := r.GetResolver(models.PlatformInstagram)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.GetName() != models.PlatformInstagram {
		t.Errorf("unexpected resolver platform: %s", resolver.GetName())
	}
}

func TestRegisterNilResolver(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterResolver(models.PlatformInstagram, nil); err == nil {
		t.Error("expected error for nil resolver")
	}
}

func TestGetResolverUnknownPlatform(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetResolver(models.PlatformFacebook); err == nil {
		t.Error("expected error for unregistered platform")
	}
}

func TestGetResolverForURL(t *testing.T) {
	r := NewRegistry()
	r.RegisterResolver(models.PlatformInstagram, &fakeResolver{name: models.PlatformInstagram})
	r.RegisterResolver(models.PlatformFacebook, &fakeResolver{name: models.PlatformFacebook})

	tests := []struct {
		url      string
		platform models.Platform
		kind     models.TargetKind
	}{
		{"https://www.instagram.com/reel/ABC123/", models.PlatformInstagram, models.KindReel},
		{"https://www.facebook.com/share/r/XyZ9/", models.PlatformFacebook, models.KindShareLink},
		{"https://www.facebook.com/reel/123456789", models.PlatformFacebook, models.KindReel},
	}

	for _, tt := range tests {
		resolver, target, err := r.GetResolverForURL(tt.url)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.url, err)
			continue
		}
		if resolver.GetName() != tt.platform {
			t.Errorf("%s: expected platform %s, got %s", tt.url, tt.platform, resolver.GetName())
		}
		if target.Kind != tt.kind {
			t.Errorf("%s: expected kind %s, got %s", tt.url, tt.kind, target.Kind)
		}
	}
}

func TestGetResolverForURLUnrecognized(t *testing.T) {
	r := NewRegistry()
	r.RegisterResolver(models.PlatformInstagram, &fakeResolver{name: models.PlatformInstagram})

	if _, _, err := r.GetResolverForURL("https://example.com/watch?v=123"); err == nil {
		t.Error("expected error for unrecognized URL")
	}
}

func TestRegisterDefaultPlatformsHonorsEnableFlags(t *testing.T) {
	cfg := &models.Config{}
	cfg.Platforms.Instagram.Enabled = true
	cfg.Platforms.Facebook.Enabled = false

	r := NewRegistry()
	if err := r.RegisterDefaultPlatforms(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !r.IsPlatformSupported(models.PlatformInstagram) {
		t.Error("expected Instagram to be registered")
	}
	if r.IsPlatformSupported(models.PlatformFacebook) {
		t.Error("expected Facebook to stay unregistered")
	}
	if got := len(r.ListPlatforms()); got != 1 {
		t.Errorf("expected 1 platform, got %d", got)
	}
}
