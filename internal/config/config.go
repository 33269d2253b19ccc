package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice relay service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"5050"`

	// Public host for this service (e.g. xxx.ngrok-free.dev when behind ngrok).
	// Used in the TwiML answer document; Twilio connects to wss://<host>/media-stream.
	// Optional; if unset, the inbound request's Host header is used.
	PublicHost string `envconfig:"PUBLIC_HOST" default:""`

	// OpenAI Realtime API configuration
	OpenAIRealtimeURL string `envconfig:"OPENAI_REALTIME_URL" required:"true"` // wss endpoint (Azure or api.openai.com)
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY" required:"true"`
	Voice             string `envconfig:"VOICE" default:"alloy"`
	Instructions      string `envconfig:"INSTRUCTIONS" default:""` // empty selects the built-in system prompt

	// Server-side turn detection (VAD) configuration
	VADThreshold         float64 `envconfig:"VAD_THRESHOLD" default:"0.6"`           // speech confidence threshold in [0,1]
	VADPrefixPaddingMs   int     `envconfig:"VAD_PREFIX_PADDING_MS" default:"250"`   // audio replayed before detected speech start
	VADSilenceDurationMs int     `envconfig:"VAD_SILENCE_DURATION_MS" default:"500"` // trailing silence that ends a turn

	// Azure AI Search configuration (retrieval backend for the context tool)
	SearchEndpoint       string `envconfig:"AZURE_SEARCH_ENDPOINT" required:"true"`
	SearchAPIKey         string `envconfig:"AZURE_SEARCH_KEY" required:"true"`
	SearchIndex          string `envconfig:"AZURE_SEARCH_INDEX" required:"true"`
	SearchSemanticConfig string `envconfig:"AZURE_SEARCH_SEMANTIC_CONFIGURATION" required:"true"`
	SearchTopK           int    `envconfig:"SEARCH_TOP_K" default:"2"`    // passages returned per query
	SearchTimeout        int    `envconfig:"SEARCH_TIMEOUT" default:"10"` // seconds

	// Resilience configuration for the retrieval backend
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"2"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.VADThreshold < 0 || cfg.VADThreshold > 1 {
		return nil, fmt.Errorf("VAD_THRESHOLD must be in [0,1], got %f", cfg.VADThreshold)
	}
	if cfg.SearchTopK < 1 {
		return nil, fmt.Errorf("SEARCH_TOP_K must be at least 1, got %d", cfg.SearchTopK)
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
