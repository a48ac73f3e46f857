// Package brief fetches client briefs and turns them into bounded plain-text
// context for the generation backend.
package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"escriba/internal/config"
)

// Client fetches briefs from the brief-source API.
type Client struct {
	baseURL    string
	authToken  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a brief-source client from configuration.
func NewClient(cfg config.Brief) *Client {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the brief for an account. The API serves either an HTML
// document or a JSON object describing the business; JSON responses are
// decoded, anything else is returned as a raw string. Non-2xx is a hard error.
func (c *Client) Fetch(ctx context.Context, accountUUID string) (any, error) {
	url := fmt.Sprintf("%s/accounts/%s/brief", c.baseURL, accountUUID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create brief request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch brief for %s: %w", accountUUID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read brief response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("brief API error for %s (status %d): %s", accountUUID, resp.StatusCode, string(body))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode JSON brief: %w", err)
		}
		return decoded, nil
	}

	return string(body), nil
}
