// Package backend provides a client for the Vantage backend API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Vantage backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client. The base URL includes the /api prefix.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type contextResponse struct {
	Context string `json:"context"`
}

// FetchEnrichedContext retrieves the precomputed chat context for a project.
// Failure is non-fatal: any error is logged and the empty string is returned,
// so a turn proceeds without enriched context.
func (c *Client) FetchEnrichedContext(ctx context.Context, projectSlug string) string {
	url := fmt.Sprintf("%s/projects/%s/chat/context", c.baseURL, projectSlug)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("WARN: failed to create context request: %v", err)
		return ""
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("WARN: failed to fetch enriched context: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("WARN: context fetch returned status %d", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("WARN: failed to read context response: %v", err)
		return ""
	}

	var result contextResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("WARN: failed to unmarshal context response: %v", err)
		return ""
	}

	return result.Context
}
