package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fscarini/mvp-agent/internal/config"
	"github.com/fscarini/mvp-agent/internal/observability"
	"github.com/fscarini/mvp-agent/internal/relay"
	"github.com/fscarini/mvp-agent/internal/retrieval"
	"github.com/fscarini/mvp-agent/internal/telephony"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("realtime_url", cfg.OpenAIRealtimeURL).
		Str("search_index", cfg.SearchIndex).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice relay service starting")

	// Retrieval gateway is shared across sessions; it is stateless per query
	searchClient := retrieval.NewAzureSearchClient(cfg)
	searchGateway := retrieval.NewGateway(searchClient, cfg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", telephony.IndexHandler())
	mux.HandleFunc("/incoming-call", telephony.IncomingCallHandler(cfg))
	mux.HandleFunc("/media-stream", relay.MediaStreamHandler(cfg, searchGateway))
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	searchCheck := func(ctx context.Context) (bool, error) {
		// Validates wiring only; a real query per probe would bill the index
		if retrieval.NewAzureSearchClient(cfg) == nil {
			return false, fmt.Errorf("failed to create search client")
		}
		return true, nil
	}
	realtimeCheck := func(ctx context.Context) (bool, error) {
		if cfg.OpenAIRealtimeURL == "" || cfg.OpenAIAPIKey == "" {
			return false, fmt.Errorf("realtime endpoint not configured")
		}
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"azure-search": searchCheck,
		"realtime":     realtimeCheck,
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Read/write timeouts stay off the media-stream path: websocket
	// connections live for the whole call.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/media-stream", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
