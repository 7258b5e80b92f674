package registry

import (
	"fmt"
	"time"

	"video-resolver/internal/classify"
	"video-resolver/internal/platform/facebook"
	"video-resolver/internal/platform/instagram"
	"video-resolver/internal/shareresolver"
	"video-resolver/internal/upstream"
	"video-resolver/pkg/models"
)

// Registry manages platform resolvers and routes classified targets to them
type Registry struct {
	resolvers map[models.Platform]models.PlatformResolver
}

// NewRegistry creates an empty platform registry
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[models.Platform]models.PlatformResolver),
	}
}

// RegisterResolver registers a platform resolver
func (r *Registry) RegisterResolver(platform models.Platform, resolver models.PlatformResolver) error {
	if resolver == nil {
		return fmt.Errorf("resolver cannot be nil")
	}
	r.resolvers[platform] = resolver
	return nil
}

// RegisterDefaultPlatforms wires up the supported platforms from the
// application config. Shared upstream clients are constructed once and
// handed to every resolver that uses them.
func (r *Registry) RegisterDefaultPlatforms(config *models.Config) error {
	var api *upstream.ResolverAPI
	if config.Upstream.ResolverAPI.Endpoint != "" {
		api = upstream.NewResolverAPI(
			config.Upstream.ResolverAPI.Endpoint,
			config.Upstream.ResolverAPI.APIKey,
			time.Duration(config.Upstream.ResolverAPI.Timeout)*time.Second,
		)
	}

	var browser *upstream.BrowserBackend
	if config.Upstream.BrowserBackend.BaseURL != "" {
		browser = upstream.NewBrowserBackend(
			config.Upstream.BrowserBackend.BaseURL,
			time.Duration(config.Upstream.BrowserBackend.Timeout)*time.Second,
		)
	}

	proxyURL := ""
	if config.Proxy.Enabled {
		proxyURL = config.Proxy.URL
	}
	outbound := config.RateLimit.OutboundPerSecond

	if config.Platforms.Instagram.Enabled {
		igResolver := instagram.NewResolver(instagram.Config{
			BrowserBackend:    browser,
			UserAgent:         config.Platforms.Instagram.UserAgent,
			ProxyURL:          proxyURL,
			OutboundPerSecond: outbound,
		})
		if err := r.RegisterResolver(models.PlatformInstagram, igResolver); err != nil {
			return fmt.Errorf("error registering Instagram resolver: %w", err)
		}
	}

	if config.Platforms.Facebook.Enabled {
		shares := shareresolver.NewResolver(shareresolver.Config{
			ResolverAPI:    api,
			BrowserBackend: browser,
			UserAgent:      config.Platforms.Facebook.UserAgent,
			ProxyURL:       proxyURL,
		})

		fbResolver := facebook.NewResolver(facebook.Config{
			ShareResolver:     shares,
			ResolverAPI:       api,
			UserAgent:         config.Platforms.Facebook.UserAgent,
			ProxyURL:          proxyURL,
			OutboundPerSecond: outbound,
		})
		if err := r.RegisterResolver(models.PlatformFacebook, fbResolver); err != nil {
			return fmt.Errorf("error registering Facebook resolver: %w", err)
		}
	}

	return nil
}

// GetResolver returns the resolver for the given platform
func (r *Registry) GetResolver(platform models.Platform) (models.PlatformResolver, error) {
	resolver, exists := r.resolvers[platform]
	if !exists {
		return nil, fmt.Errorf("no resolver registered for platform: %s", platform)
	}
	return resolver, nil
}

// GetResolverForURL classifies the URL and returns the matching resolver
// with the classified target
func (r *Registry) GetResolverForURL(url string) (models.PlatformResolver, models.CanonicalTarget, error) {
	target, ok := classify.Classify(url)
	if !ok {
		return nil, models.CanonicalTarget{}, fmt.Errorf("unsupported URL: %s", url)
	}

	resolver, err := r.GetResolver(target.Platform)
	if err != nil {
		return nil, models.CanonicalTarget{}, err
	}
	return resolver, target, nil
}

// ListPlatforms returns all registered platforms
func (r *Registry) ListPlatforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(r.resolvers))
	for platform := range r.resolvers {
		platforms = append(platforms, platform)
	}
	return platforms
}

// IsPlatformSupported checks if a platform is registered
func (r *Registry) IsPlatformSupported(platform models.Platform) bool {
	_, exists := r.resolvers[platform]
	return exists
}
