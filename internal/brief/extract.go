package brief

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"escriba/internal/logger"
)

const (
	// MaxContextChars bounds the context string handed to the generation backend.
	MaxContextChars = 12000
	// maxFallbackChars bounds the stringified fallback for unexpected input.
	maxFallbackChars = 5000

	minHeadingChars   = 5
	minParagraphChars = 80

	// websiteLabel is the fixed question the brief form asks about the
	// client's website; its answer block is where domain detection looks.
	websiteLabel = "¿Tienes página web?"
)

// allowedJSONKeys is the allow-list of business-relevant keys collected when
// the brief arrives as structured JSON.
var allowedJSONKeys = map[string]bool{
	"name":              true,
	"brand":             true,
	"service":           true,
	"services":          true,
	"description":       true,
	"objectives":        true,
	"audience":          true,
	"value_proposition": true,
	"notes":             true,
}

var (
	tagRegex    = regexp.MustCompile(`<[^>]+>`)
	domainRegex = regexp.MustCompile(`(?i)\b(?:https?://)?((?:[a-z0-9][a-z0-9-]*\.)+(?:com|es|net|org|io|co|mx|ar|cl))\b`)
)

// ExtractContext converts a raw brief (HTML page text or decoded JSON) into a
// bounded plain-text context string for the generation backend.
func ExtractContext(data any) string {
	switch v := data.(type) {
	case string:
		return truncate(extractFromHTML(v), MaxContextChars)
	case map[string]any, []any:
		return truncate(extractFromJSON(v), MaxContextChars)
	default:
		return truncate(fmt.Sprintf("%v", v), maxFallbackChars)
	}
}

// extractFromHTML distills the document with go-readability first, then runs
// a goquery pass over the result: navigation/script/media elements stripped,
// de-duplicated heading text and substantial paragraphs joined with ". ".
func extractFromHTML(html string) string {
	// Large documents go through go-readability first so page chrome never
	// reaches the heading/paragraph pass; small briefs are parsed directly.
	source := html
	if len(html) > 20000 {
		if u, err := url.Parse("https://brief.local/"); err == nil {
			parser := readability.NewParser()
			if article, err := parser.Parse(strings.NewReader(html), u); err == nil && article.Content != "" {
				source = article.Content
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		logger.Warn("failed to parse brief HTML, using raw text", map[string]any{"error": err.Error()})
		return tagRegex.ReplaceAllString(html, " ")
	}

	doc.Find("nav, script, style, img, video, audio, iframe, form, button, select, input, svg, noscript, header, footer, aside").Remove()

	seen := map[string]bool{}
	var parts []string
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if len(text) > minHeadingChars && !seen[text] {
			seen[text] = true
			parts = append(parts, text)
		}
	})
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := normalizeSpace(s.Text())
		if len(text) > minParagraphChars && !seen[text] {
			seen[text] = true
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, ". ")
}

// extractFromJSON recursively walks the object, collecting string values from
// the allow-listed business keys, de-duplicated, in stable key order.
func extractFromJSON(data any) string {
	seen := map[string]bool{}
	var parts []string

	var walk func(node any, key string)
	walk = func(node any, key string) {
		switch v := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(v[k], strings.ToLower(k))
			}
		case []any:
			for _, item := range v {
				walk(item, key)
			}
		case string:
			if allowedJSONKeys[key] && strings.TrimSpace(v) != "" && !seen[v] {
				seen[v] = true
				parts = append(parts, strings.TrimSpace(v))
			}
		}
	}
	walk(data, "")

	return strings.Join(parts, ". ")
}

// ExtractWebsite detects the client's website domain from an HTML brief. It
// locates the labeled question block, strips markup from its answer, and
// matches a bare or scheme-prefixed domain restricted to the supported TLDs.
// Returns "" when the label or a qualifying domain is absent.
func ExtractWebsite(html string) string {
	idx := strings.Index(html, websiteLabel)
	if idx < 0 {
		return ""
	}

	answer := html[idx+len(websiteLabel):]
	if len(answer) > 400 {
		answer = answer[:400]
	}
	answer = tagRegex.ReplaceAllString(answer, " ")

	m := domainRegex.FindStringSubmatch(answer)
	if m == nil {
		return ""
	}

	website := "https://" + m[1]
	logger.Info("client website detected", map[string]any{"website": website})
	return website
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
