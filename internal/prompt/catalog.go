package prompt

import (
	"context"
	"net/http"
	"time"

	"legal-extraction-engine/internal/xjson"
)

// PatternExample is one example-bearing pattern for an entity type, per
// spec.md §6's PatternCatalog contract.
type PatternExample struct {
	EntityType string   `json:"entity_type"`
	Examples   []string `json:"examples"`
}

// CatalogResponse is PatternCatalog's GET {catalog_url}?format=detailed
// response shape.
type CatalogResponse struct {
	TotalPatterns     int                         `json:"total_patterns"`
	PatternsByCategory map[string][]PatternExample `json:"patterns_by_category"`
}

// CatalogClient fetches pattern examples from the external
// PatternCatalog HTTP collaborator.
type CatalogClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewCatalogClient builds a client with a 10s default timeout.
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch performs the GET request and decodes the response.
func (c *CatalogClient) Fetch(ctx context.Context) (*CatalogResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?format=detailed", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out CatalogResponse
	if err := xjson.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// examplesForType flattens a CatalogResponse into an entity-type →
// examples lookup.
func examplesForType(catalog *CatalogResponse, entityType string) []string {
	if catalog == nil {
		return nil
	}
	for _, group := range catalog.PatternsByCategory {
		for _, p := range group {
			if p.EntityType == entityType {
				return p.Examples
			}
		}
	}
	return nil
}
