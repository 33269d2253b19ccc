package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fscarini/mvp-agent/internal/config"
	"github.com/fscarini/mvp-agent/internal/observability"
	"github.com/fscarini/mvp-agent/internal/resilience"
)

// Fallback strings returned in place of search results. The model must
// always receive some tool output, so backend failures never propagate.
const (
	FallbackNoResults = "No relevant information found in Azure Search."
	FallbackError     = "Error retrieving data from Azure Search."
)

// SearchBackend is the query capability the gateway wraps
type SearchBackend interface {
	Query(ctx context.Context, query string, top int) ([]string, error)
}

// Gateway turns a user query into a single context string for the model.
// It is a pure function of the query: no state is kept between calls, and
// it never returns an error, only one of the fallback strings.
type Gateway struct {
	backend SearchBackend
	topK    int
	retry   *resilience.RetryConfig
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

// NewGateway creates a retrieval gateway over the given backend
func NewGateway(backend SearchBackend, cfg *config.Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		backend: backend,
		topK:    cfg.SearchTopK,
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        2 * time.Second,
			BackoffMultiplier: 2.0,
		},
		breaker: resilience.NewCircuitBreaker(
			"azure-search",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: logger,
	}
}

// Search queries the backend and joins the ranked passages into one context
// string. Backend errors and empty result sets map to fixed fallback text.
func (g *Gateway) Search(ctx context.Context, query string) string {
	g.logger.Info().Str("query", query).Msg("Querying retrieval backend")

	var passages []string
	err := g.breaker.Call(func() error {
		return resilience.Retry(ctx, func() error {
			var qerr error
			passages, qerr = g.backend.Query(ctx, query, g.topK)
			return qerr
		}, g.retry, resilience.IsRetryableNetworkError)
	})
	observability.UpdateCircuitBreakerState("azure-search", int(g.breaker.GetState()))

	if err != nil {
		observability.IncrementCircuitBreakerFailures("azure-search")
		g.logger.Error().Err(err).Str("query", query).Msg("Retrieval backend call failed")
		return FallbackError
	}

	if len(passages) == 0 {
		g.logger.Info().Str("query", query).Msg("Retrieval backend returned no matches")
		return FallbackNoResults
	}

	return strings.Join(passages, "\n")
}
