package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolverAPIResolve(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"redirect","url":"https://cdn.example/video.mp4","thumb":"https://cdn.example/thumb.jpg"}`))
	}))
	defer ts.Close()

	api := NewResolverAPI(ts.URL, "", 5*time.Second)
	resp, err := api.Resolve(context.Background(), "https://www.facebook.com/reel/123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !resp.Resolvable() {
		t.Errorf("expected redirect status to be resolvable, got %s", resp.Status)
	}
	if resp.URL != "https://cdn.example/video.mp4" {
		t.Errorf("unexpected url: %s", resp.URL)
	}
}

func TestResolverAPIErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"error"}`))
	}))
	defer ts.Close()

	api := NewResolverAPI(ts.URL, "", 5*time.Second)
	resp, err := api.Resolve(context.Background(), "https://www.facebook.com/reel/123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Resolvable() {
		t.Error("expected error status to not be resolvable")
	}
}

func TestResolverAPIMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer ts.Close()

	api := NewResolverAPI(ts.URL, "", 5*time.Second)
	if _, err := api.Resolve(context.Background(), "https://www.facebook.com/reel/123"); err == nil {
		t.Error("expected error for response with no status, got nil")
	}
}

func TestResolverAPIUnconfigured(t *testing.T) {
	api := NewResolverAPI("", "", 0)
	if api.Configured() {
		t.Error("expected unconfigured client")
	}
	if _, err := api.Resolve(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error from unconfigured client, got nil")
	}
}

func TestBrowserBackendExtract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("expected /extract path, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "https://www.instagram.com/reel/ABC123/" {
			t.Errorf("unexpected url param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"videoUrl":"https://cdn.example/v.mp4","method":"browser"}`))
	}))
	defer ts.Close()

	backend := NewBrowserBackend(ts.URL, 5*time.Second)
	resp, err := backend.Extract(context.Background(), "https://www.instagram.com/reel/ABC123/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !resp.Success {
		t.Error("expected success")
	}
	if resp.VideoURL != "https://cdn.example/v.mp4" {
		t.Errorf("unexpected video url: %s", resp.VideoURL)
	}
}

func TestBrowserBackendUnconfigured(t *testing.T) {
	backend := NewBrowserBackend("", 0)
	if backend.Configured() {
		t.Error("expected unconfigured backend")
	}
	if _, err := backend.Extract(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error from unconfigured backend, got nil")
	}
}
