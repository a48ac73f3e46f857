package visual

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"escriba/internal/core"
	"escriba/internal/logger"
)

const (
	maxAttempts      = 3
	retryBaseBackoff = 800 * time.Millisecond
)

// featuredPromptTemplate is the fixed editorial-style prompt for cover
// images, parameterized by the primary keyword and article title.
const featuredPromptTemplate = `Editorial magazine-style cover photograph for a blog article titled "%s" about %s. Natural lighting, shallow depth of field, professional composition, muted warm color palette, no text, no logos, no watermarks, photorealistic.`

// Generator produces the mandatory featured image for an article.
type Generator struct {
	client *ImageClient
}

// NewGenerator wraps an image client.
func NewGenerator(client *ImageClient) *Generator {
	return &Generator{client: client}
}

// GenerateFeatured generates and normalizes the cover image. Each attempt
// regenerates and renormalizes; attempts back off by retryBaseBackoff times
// the attempt number. Exhausting all attempts is a hard error because the
// image is mandatory for publishing.
func (g *Generator) GenerateFeatured(ctx context.Context, primaryKeyword, title string) (*core.FeaturedImage, error) {
	prompt := fmt.Sprintf(featuredPromptTemplate, title, primaryKeyword)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := g.client.Generate(ctx, prompt)
		if err == nil {
			var normalized []byte
			normalized, err = Normalize(data)
			if err == nil {
				return &core.FeaturedImage{
					Prompt:  prompt,
					Size:    fmt.Sprintf("%dx%d", TargetWidth, TargetHeight),
					AltText: fmt.Sprintf("Imagen de portada sobre %s", primaryKeyword),
					Base64:  base64.StdEncoding.EncodeToString(normalized),
				}, nil
			}
		}

		lastErr = err
		logger.Warn("featured image attempt failed", map[string]any{"attempt": attempt, "error": err.Error()})
		if attempt < maxAttempts {
			select {
			case <-time.After(retryBaseBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("featured image generation failed after %d attempts: %w", maxAttempts, lastErr)
}
