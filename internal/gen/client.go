// Package gen is the client for the generative-text backend: keyword
// derivation, article outlines, and per-section prose.
package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/viper"
	"google.golang.org/genai"

	"escriba/internal/core"
	"escriba/internal/logger"
)

const (
	// DefaultModel is the default Gemini model for all text generation.
	DefaultModel = "gemini-2.5-flash"

	maxAttempts = 3
	baseDelay   = time.Second
)

// Client talks to the Gemini API.
type Client struct {
	apiKey    string
	modelName string
	gClient   *genai.Client
}

// NewClient creates a generation client. The API key is resolved from the
// environment first, then viper configuration.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			apiKey = viper.GetString("ai.gemini.api_key")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or ai.gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{apiKey: apiKey, modelName: modelName, gClient: gClient}, nil
}

// generateContent calls the model with transient-error retry: rate limits,
// timeouts and unavailability are retried up to maxAttempts with exponential
// backoff; anything else fails immediately.
func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	operation := func() (string, error) {
		resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, nil)
		if err != nil {
			if isTransient(err) {
				logger.Warn("transient generation error, will retry", map[string]any{"error": err.Error()})
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		text := resp.Text()
		if text == "" {
			return "", backoff.Permanent(fmt.Errorf("empty response from model"))
		}
		return text, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = baseDelay
	expo.Multiplier = 2

	text, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(maxAttempts),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return text, nil
}

// isTransient reports whether the backend error is worth retrying.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "quota", "timeout", "deadline", "unavailable", "503", "500", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Keywords derives 5 deduplicated SEO keywords from the brief context.
func (c *Client) Keywords(ctx context.Context, briefContext string) ([]string, error) {
	prompt := fmt.Sprintf(keywordsPromptTemplate, briefContext)
	raw, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("keyword generation failed: %w", err)
	}

	var parsed struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse keywords response: %w", err)
	}

	seen := map[string]bool{}
	var out []string
	for _, kw := range parsed.Keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
		if len(out) == 5 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("backend returned no usable keywords")
	}
	return out, nil
}

// Outline requests a title and H2 section list for the topic. The response
// may be malformed or empty; callers must treat it as optional and fall back.
func (c *Client) Outline(ctx context.Context, topic string, keywords []string, contentType, lang string) (*core.Article, error) {
	prompt := fmt.Sprintf(outlinePromptTemplate,
		languageName(lang), contentTypeInstruction(contentType), topic, strings.Join(keywords, ", "))
	raw, err := c.generateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}

	var parsed struct {
		Title    string `json:"title"`
		Sections []struct {
			Title    string   `json:"title"`
			Keywords []string `json:"keywords"`
		} `json:"sections"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		logger.Warn("outline response was not valid JSON", map[string]any{"error": err.Error()})
		return nil, nil
	}

	article := &core.Article{
		Title:           strings.TrimSpace(parsed.Title),
		PrimaryKeywords: keywords,
		Language:        lang,
	}
	for _, s := range parsed.Sections {
		article.Sections = append(article.Sections, core.Section{
			Title:    strings.TrimRight(strings.TrimSpace(s.Title), "."),
			Keywords: s.Keywords,
		})
	}
	return article, nil
}

// SectionContent requests the HTML prose for one section. The backend is
// instructed to use only the p, strong, ul, li and a tags; the sanitizer one
// level up enforces it.
func (c *Client) SectionContent(ctx context.Context, articleTitle string, section core.Section, lang string) (string, error) {
	prompt := fmt.Sprintf(sectionPromptTemplate,
		languageName(lang), articleTitle, section.Title, strings.Join(section.Keywords, ", "))
	raw, err := c.generateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("section %q generation failed: %w", section.Title, err)
	}

	content := strings.TrimSpace(stripCodeFences(raw))
	if content == "" {
		return "", fmt.Errorf("backend returned empty content for section %q", section.Title)
	}
	return content, nil
}

// extractJSON tolerates code fences and surrounding prose around a JSON body.
func extractJSON(raw string) string {
	raw = stripCodeFences(raw)
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}
	end := strings.LastIndexAny(raw, "}]")
	if end < start {
		return raw
	}
	return raw[start : end+1]
}

func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```html")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}

func languageName(lang string) string {
	if lang == "en" {
		return "English"
	}
	return "Spanish"
}
