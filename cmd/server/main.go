package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pep299/meeting-summarizer/internal/application"
	"github.com/pep299/meeting-summarizer/internal/config"
	"github.com/pep299/meeting-summarizer/internal/logging"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Meeting Summarizer Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  LLM_PROVIDER          gemini or openai (default: gemini)\n")
		fmt.Printf("  GEMINI_API_KEY        Gemini API key (required for gemini)\n")
		fmt.Printf("  OPENAI_API_KEY        OpenAI API key (required for openai)\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		fmt.Printf("  CACHE_TYPE            none, memory, sqlite or cloud-storage (default: none)\n")
		fmt.Printf("  SLACK_BOT_TOKEN       Slack bot token for summary notifications\n")
		fmt.Printf("  LOG_LEVEL             debug, info, warn or error (default: info)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Meeting Summarizer Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	logger := logging.NewLogger("server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.New(ctx, cfg, application.WithVersion(Version))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create application")
	}
	defer app.Close()

	// Create HTTP server; a summary can take several model round trips
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	sweep, err := app.StartCacheSweep(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to schedule cache sweep")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Addr(),
			"provider": cfg.LLMProvider,
			"cache":    cfg.CacheType,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutting down server...")

	// Cancel background tasks
	cancel()

	// Stop cron scheduler
	if sweep != nil {
		<-sweep.Stop().Done()
	}

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	logger.Info("Server stopped")
}
