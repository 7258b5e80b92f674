package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"video-resolver/pkg/models"
)

// Manager manages application configuration
type Manager struct {
	config *models.Config
	viper  *viper.Viper
	logger zerolog.Logger
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: &models.Config{},
		viper:  viper.New(),
		logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
	}
}

// Load loads configuration from file and environment
func (m *Manager) Load(configPath string) (*models.Config, error) {
	m.setDefaults()

	m.viper.SetConfigName("config")
	m.viper.SetConfigType("yaml")

	if configPath != "" {
		m.viper.AddConfigPath(configPath)
	} else {
		m.viper.AddConfigPath(".")
		m.viper.AddConfigPath("./config")
		m.viper.AddConfigPath("$HOME/.video-resolver")
		m.viper.AddConfigPath("/etc/video-resolver")
	}

	m.viper.AutomaticEnv()
	m.viper.SetEnvPrefix("VR")

	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file anywhere; defaults plus environment still work
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.configureLogger()

	return m.config, nil
}

// Save saves the current configuration to file
func (m *Manager) Save(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")
	if err := m.viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *models.Config {
	return m.config
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	m.viper.SetDefault("server.host", "0.0.0.0")
	m.viper.SetDefault("server.port", 8080)
	m.viper.SetDefault("server.read_timeout", 30)
	m.viper.SetDefault("server.write_timeout", 30)

	// Log defaults
	m.viper.SetDefault("log.level", "info")
	m.viper.SetDefault("log.format", "json")
	m.viper.SetDefault("log.output", "stdout")

	// Upstream defaults
	m.viper.SetDefault("upstream.resolver_api.endpoint", "")
	m.viper.SetDefault("upstream.resolver_api.api_key", "")
	m.viper.SetDefault("upstream.resolver_api.timeout", 8)
	m.viper.SetDefault("upstream.browser_backend.base_url", "")
	m.viper.SetDefault("upstream.browser_backend.timeout", 30)

	// Platform defaults
	m.viper.SetDefault("platforms.instagram.enabled", true)
	m.viper.SetDefault("platforms.facebook.enabled", true)

	// Rate limit defaults
	m.viper.SetDefault("rate_limit.enabled", true)
	m.viper.SetDefault("rate_limit.requests_per_window", 10)
	m.viper.SetDefault("rate_limit.window_seconds", 60)
	m.viper.SetDefault("rate_limit.outbound_per_second", 5)

	// Auth defaults: enforcement off until an operator configures a secret
	m.viper.SetDefault("auth.enabled", false)
	m.viper.SetDefault("auth.jwt_secret", "")
	m.viper.SetDefault("auth.token_expiry", 86400)
	m.viper.SetDefault("auth.admin_password_hash", "")

	// Download proxy defaults
	m.viper.SetDefault("download_proxy.enabled", true)
	m.viper.SetDefault("download_proxy.allowed_hosts", []string{})
	m.viper.SetDefault("download_proxy.timeout", 60)
}

// configureLogger configures the global logger based on settings
func (m *Manager) configureLogger() {
	level, err := zerolog.ParseLevel(m.config.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if m.config.Log.Format != "json" {
		m.logger = m.logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if m.config.Log.Output != "" && m.config.Log.Output != "stdout" {
		file, err := os.OpenFile(m.config.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			m.logger = m.logger.Output(file)
		}
	}
}

// GetLogger returns the logger instance
func (m *Manager) GetLogger() zerolog.Logger {
	return m.logger
}
