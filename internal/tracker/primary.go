// Package tracker updates external task trackers after a batch account
// finishes publishing. The primary tracker receives the published URL and a
// completion status per task; the secondary tracker receives an assignment.
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
	"escriba/internal/logger"
)

// PrimaryClient talks to the main task tracker.
type PrimaryClient struct {
	baseURL    string
	apiToken   string
	urlFieldID string
	doneStatus string
	httpClient *http.Client
}

// NewPrimaryClient creates a primary tracker client from configuration.
func NewPrimaryClient(cfg config.PrimaryTracker) *PrimaryClient {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PrimaryClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:   cfg.APIToken,
		urlFieldID: cfg.URLFieldID,
		doneStatus: cfg.DoneStatus,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete records the published URL on the task and closes it. The two
// updates are attempted independently so a URL-field failure never blocks
// the status change, but Complete only succeeds when both succeeded.
func (c *PrimaryClient) Complete(ctx context.Context, taskID, publishedURL string) error {
	urlErr := c.SetTaskURL(ctx, taskID, publishedURL)
	if urlErr != nil {
		logger.Warn("failed to set task URL field", map[string]any{"task_id": taskID, "error": urlErr.Error()})
	}

	closeErr := c.CloseTask(ctx, taskID)
	if closeErr != nil {
		logger.Warn("failed to close task", map[string]any{"task_id": taskID, "error": closeErr.Error()})
	}

	if urlErr != nil {
		return fmt.Errorf("task %s: setting URL field failed: %w", taskID, urlErr)
	}
	if closeErr != nil {
		return fmt.Errorf("task %s: closing failed: %w", taskID, closeErr)
	}
	return nil
}

// SetTaskURL writes the published URL into the task's custom field.
func (c *PrimaryClient) SetTaskURL(ctx context.Context, taskID, publishedURL string) error {
	payload, err := json.Marshal(map[string]string{"value": publishedURL})
	if err != nil {
		return fmt.Errorf("failed to marshal URL field payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/task/%s/field/%s", c.baseURL, taskID, c.urlFieldID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create URL field request: %w", err)
	}
	return c.send(req)
}

// CloseTask moves the task to the configured done status.
func (c *PrimaryClient) CloseTask(ctx context.Context, taskID string) error {
	payload, err := json.Marshal(map[string]string{"status": c.doneStatus})
	if err != nil {
		return fmt.Errorf("failed to marshal status payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/task/%s", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, "PUT", endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create status request: %w", err)
	}
	return c.send(req)
}

func (c *PrimaryClient) send(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tracker error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
