package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// HTTPClient represents a configurable HTTP client shared by extraction
// strategies. Outbound requests are optionally paced by a rate limiter so
// strategy chains do not hammer the source platforms.
type HTTPClient struct {
	client    *http.Client
	transport *http.Transport
	pacer     *rate.Limiter
	userAgent string
	logger    zerolog.Logger
}

// ClientConfig represents HTTP client configuration
type ClientConfig struct {
	Timeout           time.Duration
	MaxIdleConns      int
	IdleConnTimeout   time.Duration
	ProxyURL          string
	UserAgent         string
	TLSInsecure       bool
	FollowRedirects   bool
	OutboundPerSecond int
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config ClientConfig) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 10,
	}

	// Configure proxy if provided
	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err == nil {
			switch proxyURL.Scheme {
			case "http", "https":
				transport.Proxy = http.ProxyURL(proxyURL)
			case "socks5":
				dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
				if err == nil {
					transport.DialContext = dialer.(proxy.ContextDialer).DialContext
				}
			}
		}
	}

	if config.TLSInsecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var pacer *rate.Limiter
	if config.OutboundPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(config.OutboundPerSecond), config.OutboundPerSecond)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	return &HTTPClient{
		client:    client,
		transport: transport,
		pacer:     pacer,
		userAgent: userAgent,
		logger:    zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
}

// Get performs a GET request bounded by the context
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return c.Do(req, headers)
}

// Post performs a POST request bounded by the context
func (c *HTTPClient) Post(ctx context.Context, url, contentType, body string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.Do(req, headers)
}

// Do performs an HTTP request with custom headers
func (c *HTTPClient) Do(req *http.Request, headers map[string]string) (*http.Response, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("outbound pacing interrupted: %w", err)
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Making HTTP request")

	return c.client.Do(req)
}

// GetBody fetches a URL and returns the response body as a string. Non-2xx
// statuses are errors; strategies treat them as an ordinary miss.
func (c *HTTPClient) GetBody(ctx context.Context, url string, headers map[string]string) (string, error) {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := ReadBody(resp, 10<<20)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	return body, nil
}

// Head performs a HEAD request
func (c *HTTPClient) Head(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return c.Do(req, headers)
}

// Close closes the HTTP client and cleans up resources
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// SetLogger sets the logger for the HTTP client
func (c *HTTPClient) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// BuildURL builds a URL with query parameters
func BuildURL(baseURL string, params map[string]string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}

	q := u.Query()
	for key, value := range params {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// IsAbsoluteHTTPURL reports whether a string is an absolute http(s) URL
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
