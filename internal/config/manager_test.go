package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	m := NewManager()
	cfg, err := m.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Platforms.Instagram.Enabled || !cfg.Platforms.Facebook.Enabled {
		t.Error("expected both platforms enabled by default")
	}
	if !cfg.RateLimit.Enabled {
		t.Error("expected rate limiting enabled by default")
	}
	if cfg.RateLimit.RequestsPerWindow != 10 || cfg.RateLimit.WindowSeconds != 60 {
		t.Errorf("unexpected rate limit defaults: %d per %ds",
			cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowSeconds)
	}
	if cfg.Auth.Enabled {
		t.Error("expected auth disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  port: 9090
platforms:
  facebook:
    enabled: false
rate_limit:
  requests_per_window: 3
  window_seconds: 30
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	m := NewManager()
	cfg, err := m.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Platforms.Facebook.Enabled {
		t.Error("expected Facebook disabled by config file")
	}
	if !cfg.Platforms.Instagram.Enabled {
		t.Error("expected Instagram to keep its default")
	}
	if cfg.RateLimit.RequestsPerWindow != 3 {
		t.Errorf("expected 3 requests per window, got %d", cfg.RateLimit.RequestsPerWindow)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManager()
	if _, err := m.Load(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Save(dir); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
}
