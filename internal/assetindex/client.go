package assetindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// searchMaxResults caps one search call. The index paginates beyond this;
// the catalog's own pagination makes a deeper fetch pointless.
const searchMaxResults = 500

// Client queries an asset index over its JSON search endpoint using basic
// auth, the way the upstream media service exposes it.
type Client struct {
	baseEndpoint string
	apiKey       string
	apiSecret    string
	httpClient   *http.Client
}

// NewClient constructs a search client for the given endpoint and
// credentials.
func NewClient(baseEndpoint, apiKey, apiSecret string) *Client {
	return &Client{
		baseEndpoint: strings.TrimRight(baseEndpoint, "/"),
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

type searchRequest struct {
	Expression string `json:"expression"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Resources []struct {
		PublicID string `json:"public_id"`
	} `json:"resources"`
}

// Search posts the filter expression to the index and returns the matching
// public ids, deduplicated. Infrastructure failures propagate to the
// caller; retries belong to the transport layer above.
func (c *Client) Search(ctx context.Context, expression string) ([]string, error) {
	body, err := json.Marshal(searchRequest{Expression: expression, MaxResults: searchMaxResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseEndpoint+"/resources/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("asset index returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("asset index response: %w", err)
	}

	seen := make(map[string]struct{}, len(payload.Resources))
	ids := make([]string, 0, len(payload.Resources))
	for _, r := range payload.Resources {
		if _, ok := seen[r.PublicID]; ok {
			continue
		}
		seen[r.PublicID] = struct{}{}
		ids = append(ids, r.PublicID)
	}
	return ids, nil
}
