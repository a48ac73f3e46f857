// Package visual generates and normalizes the article's featured image.
package visual

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ImageClient handles OpenAI image API interactions.
type ImageClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewImageClient creates an image generation client.
func NewImageClient(apiKey, model, baseURL string) *ImageClient {
	if model == "" {
		model = "gpt-image-1"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &ImageClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
}

// Generate requests one image and returns the raw bytes. The requested size
// is the API's widest landscape option; normalization to the final article
// dimensions happens separately.
func (c *ImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	request := imageRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
		Size:   "1792x1024",
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/images/generations", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call image API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API error (status %d): %s", resp.StatusCode, string(body))
	}

	var imgResp imageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image response: %w", err)
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image data received")
	}

	// Responses may arrive as a data URI; keep only the payload.
	payload := imgResp.Data[0].B64JSON
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}
