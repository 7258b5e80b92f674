package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"video-resolver/pkg/models"
)

// FixedWindowStore counts requests per client in fixed windows. A client's
// counter resets lazily when its window elapses; records are kept for the
// process lifetime so a client's window boundary stays stable.
type FixedWindowStore struct {
	limit   int
	window  time.Duration
	records map[string]*record
	mu      sync.Mutex
	now     func() time.Time
}

type record struct {
	count       int
	windowStart time.Time
}

// NewFixedWindowStore creates a store allowing limit requests per window
func NewFixedWindowStore(limit int, window time.Duration) *FixedWindowStore {
	return &FixedWindowStore{
		limit:   limit,
		window:  window,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Increment records one request for the key and reports whether it fits in
// the current window. The request that overflows the budget is counted but
// rejected; the count keeps growing until the window rolls over.
func (s *FixedWindowStore) Increment(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, exists := s.records[key]
	if !exists || now.Sub(rec.windowStart) >= s.window {
		s.records[key] = &record{count: 1, windowStart: now}
		return true
	}

	rec.count++
	return rec.count <= s.limit
}

// Remaining reports how many requests the key has left in its current window
func (s *FixedWindowStore) Remaining(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[key]
	if !exists || s.now().Sub(rec.windowStart) >= s.window {
		return s.limit
	}
	left := s.limit - rec.count
	if left < 0 {
		return 0
	}
	return left
}

// Manager wires the counter store into the HTTP layer
type Manager struct {
	store    models.CounterStore
	limit    int
	window   time.Duration
	enabled  bool
	onReject func()
	logger   zerolog.Logger
}

// OnReject registers a hook invoked once per rejected request
func (m *Manager) OnReject(hook func()) {
	m.onReject = hook
}

// NewManager creates a rate limiting manager from the application config
func NewManager(cfg *models.Config) *Manager {
	limit := cfg.RateLimit.RequestsPerWindow
	if limit <= 0 {
		limit = 10
	}
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}

	return &Manager{
		store:   NewFixedWindowStore(limit, window),
		limit:   limit,
		window:  window,
		enabled: cfg.RateLimit.Enabled,
		logger:  zerolog.New(os.Stdout).With().Timestamp().Str("component", "ratelimit").Logger(),
	}
}

// Middleware rejects clients that exhausted their window budget. The client
// key is the requester IP, overridden by an API key header when present.
func (m *Manager) Middleware() gin.HandlerFunc {
	if !m.enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			key = "api_key:" + apiKey
		}

		if !m.store.Increment(key) {
			m.logger.Warn().Str("client", key).Msg("Rate limit exceeded")
			if m.onReject != nil {
				m.onReject()
			}
			c.JSON(http.StatusTooManyRequests, models.Envelope{
				Success: false,
				Error:   "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(m.limit))
		if fw, ok := m.store.(*FixedWindowStore); ok {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(fw.Remaining(key)))
		}

		c.Next()
	}
}
