package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"escriba/internal/config"
)

// SecondaryClient talks to the optional secondary tracker, which only needs
// an assignment update per task once the account's articles are published.
type SecondaryClient struct {
	baseURL    string
	apiToken   string
	assigneeID string
	httpClient *http.Client
}

// NewSecondaryClient creates a secondary tracker client from configuration.
func NewSecondaryClient(cfg config.SecondaryTracker) *SecondaryClient {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SecondaryClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		assigneeID: cfg.AssigneeID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Assign sets the configured assignee on the task.
func (c *SecondaryClient) Assign(ctx context.Context, taskID string) error {
	payload, err := json.Marshal(map[string]string{"assignee": c.assigneeID})
	if err != nil {
		return fmt.Errorf("failed to marshal assignment payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tasks/%s/assign", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create assignment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("secondary tracker error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
