// Package publish pushes completed articles to the WordPress REST API:
// media upload, category lookup, and post creation.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"escriba/internal/config"
	"escriba/internal/core"
	"escriba/internal/logger"
)

// Client talks to the publish target.
type Client struct {
	baseURL         string
	username        string
	appPassword     string
	defaultCategory string
	httpClient      *http.Client
	converter       *md.Converter
}

// NewClient creates a CMS client from configuration.
func NewClient(cfg config.CMS) *Client {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		username:        cfg.Username,
		appPassword:     cfg.AppPassword,
		defaultCategory: cfg.DefaultCategory,
		httpClient:      &http.Client{Timeout: timeout},
		converter:       md.NewConverter("", true, nil),
	}
}

// Publish runs the full publish sequence for a completed article: upload the
// featured image, resolve the category (optional), create the post. Returns
// the public URL.
func (c *Client) Publish(ctx context.Context, article *core.Article) (string, error) {
	var mediaID int
	if article.FeaturedImage != nil {
		imageData, err := base64.StdEncoding.DecodeString(article.FeaturedImage.Base64)
		if err != nil {
			return "", fmt.Errorf("featured image payload is not valid base64: %w", err)
		}
		mediaID, err = c.UploadMedia(ctx, imageData, article.Title, article.FeaturedImage.AltText)
		if err != nil {
			return "", err
		}
	}

	categoryID, err := c.CategoryID(ctx, c.defaultCategory)
	if err != nil {
		// Category is optional: publish proceeds uncategorized.
		logger.Warn("category lookup failed, publishing without category", map[string]any{"error": err.Error()})
		categoryID = 0
	}

	return c.CreatePost(ctx, article, mediaID, categoryID)
}

type mediaResponse struct {
	ID int `json:"id"`
}

// UploadMedia uploads the image bytes and returns the media id.
func (c *Client) UploadMedia(ctx context.Context, data []byte, title, altText string) (int, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "featured.jpg")
	if err != nil {
		return 0, fmt.Errorf("failed to build media upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write media payload: %w", err)
	}
	_ = writer.WriteField("title", title)
	_ = writer.WriteField("alt_text", altText)
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize media upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/media", &body)
	if err != nil {
		return 0, fmt.Errorf("failed to create media request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.username, c.appPassword)

	var resp mediaResponse
	if err := c.do(req, &resp); err != nil {
		return 0, fmt.Errorf("media upload rejected: %w", err)
	}
	return resp.ID, nil
}

// CategoryID resolves a category name to its id. A missing category is not
// an error: it returns 0 and the post is created uncategorized.
func (c *Client) CategoryID(ctx context.Context, name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	endpoint := c.baseURL + "/wp-json/wp/v2/categories?search=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create category request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)

	var categories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(req, &categories); err != nil {
		return 0, err
	}

	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			return cat.ID, nil
		}
	}
	if len(categories) > 0 {
		return categories[0].ID, nil
	}
	return 0, nil
}

type postRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt,omitempty"`
	Status        string `json:"status"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
	Categories    []int  `json:"categories,omitempty"`
}

type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// CreatePost creates the published post and returns its public URL.
func (c *Client) CreatePost(ctx context.Context, article *core.Article, mediaID, categoryID int) (string, error) {
	post := postRequest{
		Title:         article.Title,
		Content:       BuildBody(article),
		Excerpt:       c.excerpt(article),
		Status:        "publish",
		FeaturedMedia: mediaID,
	}
	if categoryID > 0 {
		post.Categories = []int{categoryID}
	}

	payload, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("failed to marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/posts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.appPassword)

	var resp postResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("post creation rejected: %w", err)
	}
	if resp.Link == "" {
		return "", fmt.Errorf("CMS returned no post link")
	}
	return resp.Link, nil
}

// BuildBody assembles the final HTML document body: each section becomes an
// H2 heading followed by its content fragment.
func BuildBody(article *core.Article) string {
	var b strings.Builder
	for _, s := range article.Sections {
		fmt.Fprintf(&b, "<h2 id=%q>%s</h2>\n%s\n", s.ID, s.Title, s.Content)
	}
	return b.String()
}

// excerpt derives a short plain-text excerpt from the first section via
// markdown conversion.
func (c *Client) excerpt(article *core.Article) string {
	if len(article.Sections) == 0 {
		return ""
	}
	text, err := c.converter.ConvertString(article.Sections[0].Content)
	if err != nil {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 160 {
		text = text[:160]
	}
	return text
}

// do executes the request and decodes the response, surfacing the
// server-provided message on non-2xx when one is present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("CMS error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("CMS error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
