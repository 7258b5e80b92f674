package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"video-resolver/internal/auth"
	"video-resolver/internal/config"
	"video-resolver/internal/export"
	"video-resolver/internal/registry"
	"video-resolver/internal/server"
	"video-resolver/pkg/models"
)

var (
	configPath   string
	exportPath   string
	exportFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "video-resolver",
	Short: "Resolve Instagram and Facebook post URLs to direct video URLs",
	Long: `Video Resolver turns social post URLs into directly fetchable video
asset URLs without downloading the bytes itself.

Features:
- Instagram reels and posts
- Facebook reels, videos, and opaque share links
- Multi-strategy extraction with automatic fallback
- Batch resolution with CSV/XLSX/JSON reports
- API server with rate limiting and metrics`,
	Version: "1.0.0",
}

func loadRegistry() (*registry.Registry, *models.Config, error) {
	configManager := config.NewManager()
	cfg, err := configManager.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}

	reg := registry.NewRegistry()
	if err := reg.RegisterDefaultPlatforms(cfg); err != nil {
		return nil, nil, fmt.Errorf("error registering platforms: %w", err)
	}
	return reg, cfg, nil
}

func resolveOne(reg *registry.Registry, url string) (models.Platform, *models.ResolutionResult) {
	resolver, target, err := reg.GetResolverForURL(url)
	if err != nil {
		return "", models.Failure(models.ErrInvalidURL, "Unsupported or invalid post URL.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	return target.Platform, resolver.Resolve(ctx, target)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Resolve a post URL to a direct video URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]

		reg, _, err := loadRegistry()
		if err != nil {
			return err
		}

		fmt.Printf("Resolving: %s\n", url)
		platform, result := resolveOne(reg, url)

		if result.Succeeded() {
			fmt.Printf("✅ Resolved via %s\n", result.Outcome.StrategyName)
			fmt.Printf("   Platform: %s\n", platform)
			fmt.Printf("   Video URL: %s\n", result.Outcome.VideoURL)
			if result.Outcome.ThumbnailURL != "" {
				fmt.Printf("   Thumbnail: %s\n", result.Outcome.ThumbnailURL)
			}
			fmt.Printf("   Quality: %s\n", result.Outcome.Quality)
			if d := models.FormatDuration(result.Outcome.DurationSeconds); d != "" {
				fmt.Printf("   Duration: %s\n", d)
			}
		} else {
			fmt.Printf("❌ Resolution failed: %s\n", result.Message)
		}

		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [urls-file]",
	Short: "Resolve multiple post URLs from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := readURLsFromFile(args[0])
		if err != nil {
			return fmt.Errorf("error reading URLs file: %w", err)
		}
		if len(urls) == 0 {
			fmt.Println("No URLs found in file")
			return nil
		}

		reg, _, err := loadRegistry()
		if err != nil {
			return err
		}

		fmt.Printf("Found %d URLs to resolve\n", len(urls))

		records := make([]export.BatchRecord, 0, len(urls))
		success := 0
		for _, url := range urls {
			platform, result := resolveOne(reg, url)
			records = append(records, export.NewBatchRecord(url, platform, result))

			if result.Succeeded() {
				success++
				fmt.Printf("✅ %s\n", result.Outcome.VideoURL)
			} else {
				fmt.Printf("❌ %s: %s\n", url, result.Message)
			}
		}

		fmt.Printf("\nResolution summary: %d success, %d failed\n", success, len(urls)-success)

		if exportPath != "" {
			exporter := export.NewExporter(export.ExportFormat(exportFormat), exportPath)
			if err := exporter.Export(records); err != nil {
				return fmt.Errorf("error exporting report: %w", err)
			}
			fmt.Printf("Report written to %s\n", exportPath)
		}

		return nil
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configManager := config.NewManager()
		cfg, err := configManager.Load(configPath)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		srv := server.NewServer(cfg)
		if err := srv.Run(); err != nil {
			return fmt.Errorf("error running server: %w", err)
		}

		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Hash an admin password for the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configManager := config.NewManager()
		cfg, err := configManager.Load(configPath)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		fmt.Printf("📋 Current Configuration\n")
		fmt.Printf("   Server Host: %s\n", cfg.Server.Host)
		fmt.Printf("   Server Port: %d\n", cfg.Server.Port)
		fmt.Printf("   Log Level: %s\n", cfg.Log.Level)
		fmt.Printf("   Instagram Enabled: %v\n", cfg.Platforms.Instagram.Enabled)
		fmt.Printf("   Facebook Enabled: %v\n", cfg.Platforms.Facebook.Enabled)
		fmt.Printf("   Rate Limit: %d per %ds\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowSeconds)
		fmt.Printf("   Resolver API: %s\n", cfg.Upstream.ResolverAPI.Endpoint)
		fmt.Printf("   Browser Backend: %s\n", cfg.Upstream.BrowserBackend.BaseURL)
		fmt.Printf("   Proxy Enabled: %v\n", cfg.Proxy.Enabled)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	batchCmd.Flags().StringVarP(&exportPath, "export", "e", "", "Write a batch report to this path")
	batchCmd.Flags().StringVarP(&exportFormat, "export-format", "f", "csv", "Report format (csv, xlsx, json)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(showConfigCmd)
}

func readURLsFromFile(filename string) ([]string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	var urls []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}

	return urls, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
