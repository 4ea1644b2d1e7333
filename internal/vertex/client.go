package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const searchEndpointTemplate = "https://discoveryengine.googleapis.com/v1alpha/" +
	"projects/%s/locations/%s/collections/default_collection/" +
	"engines/%s/servingConfigs/default_search:search"

// TokenProvider supplies a bearer token for backend calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TransportError is a non-success status from the search backend. Status
// and body propagate 1:1 to the caller; retry policy belongs to a layer
// above this one.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vertex search API failed: status %d: %s", e.StatusCode, e.Body)
}

// Client calls the document-search backend. One client is constructed at
// process start and shared across requests.
type Client struct {
	endpoint string
	tokens   TokenProvider
	http     *http.Client
}

// NewClient builds a search client for the given project/location/engine.
func NewClient(projectID, location, engineID string, timeout time.Duration, tokens TokenProvider) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: fmt.Sprintf(searchEndpointTemplate, projectID, location, engineID),
		tokens:   tokens,
		http:     &http.Client{Timeout: timeout},
	}
}

// Search posts one search payload and decodes the raw response. Non-2xx
// statuses surface as *TransportError.
func (c *Client) Search(ctx context.Context, payload SearchRequest) (*SearchResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}
