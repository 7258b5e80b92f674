package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"video-resolver/pkg/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service issues and validates API tokens. The service runs in a
// single-operator mode: one admin password hash from config unlocks token
// issuance, and any valid token passes the middleware.
type Service struct {
	jwtSecret []byte
	adminHash string
	expiry    time.Duration
	enabled   bool
	logger    zerolog.Logger
}

// NewService creates an auth service from the application config
func NewService(cfg *models.Config) *Service {
	expiry := time.Duration(cfg.Auth.TokenExpiry) * time.Second
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &Service{
		jwtSecret: []byte(cfg.Auth.JWTSecret),
		adminHash: cfg.Auth.AdminPasswordHash,
		expiry:    expiry,
		enabled:   cfg.Auth.Enabled,
		logger:    zerolog.New(os.Stdout).With().Timestamp().Str("component", "auth").Logger(),
	}
}

// Enabled reports whether token enforcement is on
func (s *Service) Enabled() bool {
	return s.enabled
}

// IssueToken checks the admin password and returns a signed token
func (s *Service) IssueToken(password string) (string, error) {
	if s.adminHash == "" {
		return "", errors.New("admin password not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "admin",
		"exp": now.Add(s.expiry).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	s.logger.Info().Msg("Token issued")
	return signed, nil
}

// ValidateToken checks a signed token and returns its subject
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Middleware enforces a Bearer token on protected routes. A disabled
// service passes every request through.
func (s *Service) Middleware() gin.HandlerFunc {
	if !s.enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Missing bearer token.",
			})
			c.Abort()
			return
		}

		sub, err := s.ValidateToken(tokenString)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Token rejected")
			c.JSON(http.StatusUnauthorized, models.Envelope{
				Success: false,
				Error:   "Invalid or expired token.",
			})
			c.Abort()
			return
		}

		c.Set("auth_subject", sub)
		c.Next()
	}
}

// HashPassword produces a bcrypt hash suitable for the config file
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
