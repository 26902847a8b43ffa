// Package client provides a GraphQL client for the recipebox server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultEndpoint is used when neither the caller nor RECIPEBOX_SERVER_URL names a server.
const DefaultEndpoint = "http://localhost:8585/query"

// Client is a GraphQL client for the recipebox server.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a new GraphQL client.
// If endpoint is empty, uses RECIPEBOX_SERVER_URL env var or defaults to localhost:8585.
// Timeout can be configured via RECIPEBOX_CLIENT_TIMEOUT env var (default 30s).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("RECIPEBOX_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := 30 * time.Second
	if t := os.Getenv("RECIPEBOX_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the GraphQL URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// graphQLRequest is the request payload for GraphQL operations.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response payload from GraphQL operations.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError is an error reported by the server in the response body.
// Message is meant for end users.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (e *GraphQLError) Error() string {
	return "graphql error: " + e.Message
}

// Execute sends a GraphQL query/mutation and returns the result.
// Errors reported by the server are returned as *GraphQLError.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, result any) error {
	reqBody, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error: %s - %s", resp.Status, string(body))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return &gqlResp.Errors[0]
	}

	if result != nil && len(gqlResp.Data) > 0 {
		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}

	return nil
}
