package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bobmcallan/signin-portal/internal/app"
	"github.com/bobmcallan/signin-portal/internal/common"
	"github.com/bobmcallan/signin-portal/internal/config"
	"github.com/bobmcallan/signin-portal/internal/server"
)

var (
	configFiles = pflag.StringArrayP("config", "c", nil, "Configuration file path (can be specified multiple times)")
	serverPort  = pflag.IntP("port", "p", 0, "Server port (overrides config)")
	serverHost  = pflag.String("host", "", "Server host (overrides config)")
	showVersion = pflag.Bool("version", false, "Print version information")
)

func main() {
	pflag.Parse()

	if *showVersion {
		fmt.Printf("signin-portal version %s\n", config.GetFullVersion())
		os.Exit(0)
	}

	files := *configFiles
	if len(files) == 0 {
		if path := discoverConfig(); path != "" {
			files = append(files, path)
		}
	}

	cfg, err := config.LoadFromFiles(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// CLI flags have the highest priority
	config.ApplyFlagOverrides(cfg, *serverPort, *serverHost)

	logger := common.NewLoggerFromConfig(cfg.Logging)

	logger.Info().
		Int("port", cfg.Server.Port).
		Str("host", cfg.Server.Host).
		Str("environment", cfg.Environment).
		Str("config_files", fmt.Sprintf("%v", files)).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		os.Exit(1)
	}

	srv := server.New(application)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info().Str("url", cfg.BaseURL()).Msg("server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("shutdown signal received")
	case err := <-errChan:
		logger.Error().Err(err).Msg("server failed to start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	if err := application.Close(); err != nil {
		logger.Error().Err(err).Msg("application shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

// discoverConfig returns the first portal.toml found next to the binary or
// under the working directory.
func discoverConfig() string {
	candidates := []string{"portal.toml", "config/portal.toml", "docker/portal.toml"}

	if exe, err := os.Executable(); err == nil {
		binDir := filepath.Dir(exe)
		candidates = append([]string{
			filepath.Join(binDir, "portal.toml"),
			filepath.Join(binDir, "config", "portal.toml"),
		}, candidates...)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
