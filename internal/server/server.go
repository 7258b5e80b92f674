package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"video-resolver/internal/auth"
	"video-resolver/internal/classify"
	"video-resolver/internal/envelope"
	"video-resolver/internal/monitor"
	"video-resolver/internal/proxy"
	"video-resolver/internal/ratelimit"
	"video-resolver/internal/registry"
	"video-resolver/pkg/models"
)

// Server represents the API server
type Server struct {
	config       *models.Config
	registry     *registry.Registry
	monitor      *monitor.Monitor
	authService  *auth.Service
	rateLimitMgr *ratelimit.Manager
	proxy        *proxy.Proxy
	httpServer   *http.Server
	logger       zerolog.Logger
}

// NewServer creates a new API server
func NewServer(cfg *models.Config) *Server {
	reg := registry.NewRegistry()
	if err := reg.RegisterDefaultPlatforms(cfg); err != nil {
		log.Fatal().Err(err).Msg("Error registering platforms")
	}

	mon := monitor.NewMonitor()
	mon.Start()

	rateLimitMgr := ratelimit.NewManager(cfg)
	rateLimitMgr.OnReject(mon.RecordRateLimited)

	var dlProxy *proxy.Proxy
	if cfg.DownloadProxy.Enabled {
		dlProxy = proxy.NewProxy(proxy.Config{
			AllowedHosts: cfg.DownloadProxy.AllowedHosts,
			Timeout:      time.Duration(cfg.DownloadProxy.Timeout) * time.Second,
			ProxyURL:     cfg.Proxy.URL,
			RecordBytes:  mon.RecordProxyBytes,
		})
	}

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config:       cfg,
		registry:     reg,
		monitor:      mon,
		authService:  auth.NewService(cfg),
		rateLimitMgr: rateLimitMgr,
		proxy:        dlProxy,
		logger:       zerolog.New(os.Stdout).With().Timestamp().Str("component", "server").Logger(),
	}
}

// Start starts the API server
func (s *Server) Start() error {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	s.setupRoutes(router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		s.logger.Info().Str("address", s.httpServer.Addr).Msg("Starting API server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("Error starting server")
		}
	}()

	return nil
}

// Stop stops the API server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.monitor.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down server")
		return err
	}

	s.logger.Info().Msg("API server stopped")
	return nil
}

// Run starts the server and blocks until an interrupt arrives
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Stop()
}

// setupRoutes sets up the API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(s.rateLimitMgr.Middleware())

	v1 := api.Group("/v1")
	{
		v1.POST("/auth/token", s.issueToken)

		protected := v1.Group("")
		protected.Use(s.authService.Middleware())
		{
			protected.POST("/resolve", s.resolve)
			if s.proxy != nil {
				protected.GET("/download", s.proxy.Handler)
			}
		}
	}
}

// healthCheck reports service liveness and basic runtime stats
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"platforms": s.registry.ListPlatforms(),
		"runtime":   s.monitor.HealthCheck(),
	})
}

// issueToken exchanges the admin password for a bearer token
func (s *Server) issueToken(c *gin.Context) {
	if !s.authService.Enabled() {
		c.JSON(http.StatusNotFound, models.Envelope{
			Success: false,
			Error:   "Authentication is not enabled.",
		})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Envelope{
			Success: false,
			Error:   "Missing password.",
		})
		return
	}

	token, err := s.authService.IssueToken(req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.Envelope{
			Success: false,
			Error:   "Invalid credentials.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// resolve classifies the submitted URL and drives the platform resolver.
// Classification failures return 400 without any outbound traffic.
func (s *Server) resolve(c *gin.Context) {
	var req models.ResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RawURL == "" {
		c.JSON(http.StatusBadRequest, models.Envelope{
			Success: false,
			Error:   "Missing url in request body.",
		})
		return
	}
	req.ClientID = c.ClientIP()

	target, ok := classify.Classify(req.RawURL)
	if !ok {
		c.JSON(models.ErrInvalidURL.HTTPStatus(), models.Envelope{
			Success: false,
			Error:   "Unsupported or invalid post URL.",
		})
		return
	}

	resolver, err := s.registry.GetResolver(target.Platform)
	if err != nil {
		c.JSON(models.ErrInvalidURL.HTTPStatus(), models.Envelope{
			Success: false,
			Error:   fmt.Sprintf("Platform %s is not enabled.", target.Platform),
		})
		return
	}

	s.monitor.RecordResolutionStart(string(target.Platform))
	started := time.Now()

	result := resolver.Resolve(c.Request.Context(), target)
	elapsed := time.Since(started)

	if result.Succeeded() {
		s.monitor.RecordResolutionSuccess(
			string(target.Platform),
			string(result.Outcome.Quality),
			result.Outcome.StrategyName,
			elapsed,
		)
		c.JSON(http.StatusOK, envelope.Build(result))
		return
	}

	s.monitor.RecordResolutionFailure(string(target.Platform), string(result.Kind), elapsed)
	c.JSON(result.Kind.HTTPStatus(), envelope.Build(result))
}

// corsMiddleware allows browser clients on any origin
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
