package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fscarini/mvp-agent/internal/config"
)

const searchAPIVersion = "2023-11-01"

// noContentPlaceholder stands in for a matched document missing its chunk field.
const noContentPlaceholder = "No content available"

// AzureSearchClient queries an Azure AI Search index over its REST API.
// One JSON POST per query; semantic ranking is configured server side.
type AzureSearchClient struct {
	endpoint       string
	indexName      string
	apiKey         string
	semanticConfig string
	httpClient     *http.Client
}

// NewAzureSearchClient creates a search client from service configuration
func NewAzureSearchClient(cfg *config.Config) *AzureSearchClient {
	return &AzureSearchClient{
		endpoint:       cfg.SearchEndpoint,
		indexName:      cfg.SearchIndex,
		apiKey:         cfg.SearchAPIKey,
		semanticConfig: cfg.SearchSemanticConfig,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.SearchTimeout) * time.Second,
		},
	}
}

type searchRequest struct {
	Search                string `json:"search"`
	Top                   int    `json:"top"`
	QueryType             string `json:"queryType"`
	SemanticConfiguration string `json:"semanticConfiguration"`
}

type searchResponse struct {
	Value []searchDocument `json:"value"`
}

type searchDocument struct {
	Chunk *string `json:"chunk"`
}

// Query runs a semantic search and returns the chunk text of each match in
// rank order. Zero matches is not an error; the gateway maps it to the
// no-results fallback.
func (c *AzureSearchClient) Query(ctx context.Context, query string, top int) ([]string, error) {
	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.indexName, searchAPIVersion)

	body, err := json.Marshal(searchRequest{
		Search:                query,
		Top:                   top,
		QueryType:             "semantic",
		SemanticConfiguration: c.semanticConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	passages := make([]string, 0, len(result.Value))
	for _, doc := range result.Value {
		if doc.Chunk != nil {
			passages = append(passages, *doc.Chunk)
		} else {
			passages = append(passages, noContentPlaceholder)
		}
	}
	return passages, nil
}
