package proxy

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tidwall/match"

	"video-resolver/internal/utils"
	"video-resolver/pkg/models"
)

// Proxy streams remote video bytes through the service so browser clients
// are not blocked by the CDN's cross-origin policy. Only HTTPS URLs are
// fetched, and the host must clear the allowlist when one is configured.
type Proxy struct {
	client       *utils.HTTPClient
	allowedHosts []string
	logger       zerolog.Logger
	recordBytes  func(int64)
}

// Config configures the download proxy
type Config struct {
	AllowedHosts []string
	Timeout      time.Duration
	ProxyURL     string

	// RecordBytes is an optional hook invoked with the streamed byte count
	RecordBytes func(int64)
}

// NewProxy creates a download proxy
func NewProxy(cfg Config) *Proxy {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Proxy{
		client: utils.NewHTTPClient(utils.ClientConfig{
			Timeout:         timeout,
			ProxyURL:        cfg.ProxyURL,
			FollowRedirects: true,
		}),
		allowedHosts: cfg.AllowedHosts,
		logger:       zerolog.New(os.Stdout).With().Timestamp().Str("component", "proxy").Logger(),
		recordBytes:  cfg.RecordBytes,
	}
}

// hostAllowed checks the URL host against the allowlist patterns. An empty
// allowlist admits any HTTPS host.
func (p *Proxy) hostAllowed(host string) bool {
	if len(p.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, pattern := range p.allowedHosts {
		if match.Match(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// validate checks the requested URL before any bytes are fetched
func (p *Proxy) validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("error parsing URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only https URLs are proxied")
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	if !p.hostAllowed(u.Hostname()) {
		return fmt.Errorf("host not allowed: %s", u.Hostname())
	}
	return nil
}

// extensionFromResponse picks a filename extension, preferring the upstream
// Content-Disposition filename, then the content type, then mp4
func extensionFromResponse(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		_, params, _ := mime.ParseMediaType(cd)
		if filename, ok := params["filename"]; ok {
			if ext := filepath.Ext(filename); ext != "" {
				return strings.ToLower(ext)
			}
		}
	}

	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch ct {
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	default:
		return ".mp4"
	}
}

// Handler serves GET requests with a url query parameter by streaming the
// remote bytes back as an attachment
func (p *Proxy) Handler(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, models.Envelope{
			Success: false,
			Error:   "Missing url parameter.",
		})
		return
	}

	if err := p.validate(rawURL); err != nil {
		p.logger.Warn().Str("url", rawURL).Err(err).Msg("Rejected proxy request")
		c.JSON(http.StatusBadRequest, models.Envelope{
			Success: false,
			Error:   "URL not eligible for proxying.",
		})
		return
	}

	resp, err := p.client.Get(c.Request.Context(), rawURL, nil)
	if err != nil {
		p.logger.Error().Str("url", rawURL).Err(err).Msg("Upstream fetch failed")
		c.JSON(http.StatusBadGateway, models.Envelope{
			Success: false,
			Error:   "Upstream fetch failed.",
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.JSON(http.StatusBadGateway, models.Envelope{
			Success: false,
			Error:   fmt.Sprintf("Upstream returned status %d.", resp.StatusCode),
		})
		return
	}

	filename := "video" + extensionFromResponse(resp)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Header("Content-Type", ct)
	} else {
		c.Header("Content-Type", "video/mp4")
	}
	if resp.ContentLength > 0 {
		c.Header("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}

	n, err := io.Copy(c.Writer, resp.Body)
	if err != nil {
		// Headers are already out; all we can do is log the broken stream
		p.logger.Warn().Str("url", rawURL).Err(err).Msg("Stream interrupted")
	}
	if p.recordBytes != nil {
		p.recordBytes(n)
	}
}
