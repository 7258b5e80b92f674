package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"video-resolver/pkg/models"
)

func authConfig(t *testing.T, password string) *models.Config {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	cfg := &models.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenExpiry = 3600
	cfg.Auth.AdminPasswordHash = hash
	return cfg
}

func TestIssueAndValidateToken(t *testing.T) {
	s := NewService(authConfig(t, "hunter2"))

	token, err := s.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if sub != "admin" {
		t.Errorf("unexpected subject: %s", sub)
	}
}

func TestIssueTokenWrongPassword(t *testing.T) {
	s := NewService(authConfig(t, "hunter2"))

	if _, err := s.IssueToken("wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	s := NewService(authConfig(t, "hunter2"))
	token, err := s.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := authConfig(t, "hunter2")
	other.Auth.JWTSecret = "different-secret"
	if _, err := NewService(other).ValidateToken(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestMiddlewareRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := NewService(authConfig(t, "hunter2"))
	router := gin.New()
	router.Use(s.Middleware())
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	token, _ := s.IssueToken("hunter2")
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := authConfig(t, "hunter2")
	cfg.Auth.Enabled = false
	s := NewService(cfg)

	router := gin.New()
	router.Use(s.Middleware())
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected pass-through when disabled, got %d", w.Code)
	}
}
