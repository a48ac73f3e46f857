// Package readability rewrites generated section HTML to improve automated
// readability scoring. The transform is deterministic and makes no external
// calls; malformed regions pass through unchanged.
package readability

import (
	"regexp"
	"strings"
)

const (
	maxSentenceWords      = 20
	maxParagraphSentences = 4
)

var paragraphRegex = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)

// Connector simplification: subordinating/relative-clause connectors become
// period-separated simpler forms. Applied case-insensitively to the whole
// string, after splitting, so rewrites cannot re-trigger paragraph logic.
var connectorReplacements = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i), lo que significa que\s+`), ". Esto significa que "},
	{regexp.MustCompile(`(?i), lo cual implica que\s+`), ". Esto implica que "},
	{regexp.MustCompile(`(?i), debido a que\s+`), ". Esto se debe a que "},
	{regexp.MustCompile(`(?i), ya que\s+`), ". Esto es porque "},
	{regexp.MustCompile(`(?i), por lo que\s+`), ". Por eso "},
	{regexp.MustCompile(`(?i), mientras que\s+`), ". En cambio, "},
	{regexp.MustCompile(`(?i), no obstante,?\s+`), ". Pero "},
	{regexp.MustCompile(`(?i), sin embargo,?\s+`), ". Pero "},
}

// Vocabulary simplification: whole-word, case-insensitive substitutions.
var vocabularyReplacements = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)\butilizar\b`), "usar"},
	{regexp.MustCompile(`(?i)\butilizando\b`), "usando"},
	{regexp.MustCompile(`(?i)\brealizar\b`), "hacer"},
	{regexp.MustCompile(`(?i)\befectuar\b`), "hacer"},
	{regexp.MustCompile(`(?i)\bobtener\b`), "conseguir"},
	{regexp.MustCompile(`(?i)\badquirir\b`), "comprar"},
	{regexp.MustCompile(`(?i)\bincrementar\b`), "aumentar"},
	{regexp.MustCompile(`(?i)\baproximadamente\b`), "unos"},
	{regexp.MustCompile(`(?i)\bposteriormente\b`), "luego"},
	{regexp.MustCompile(`(?i)\bfrecuentemente\b`), "a menudo"},
	{regexp.MustCompile(`(?i)\bfundamental\b`), "clave"},
	{regexp.MustCompile(`(?i)\bimplementar\b`), "aplicar"},
}

var (
	multiSpaceRegex    = regexp.MustCompile(`\s+`)
	multiPeriodRegex   = regexp.MustCompile(`\.{2,}`)
	spacedPeriodRegex  = regexp.MustCompile(`\.\s*\.`)
	periodUpperRegex   = regexp.MustCompile(`\.\s*([A-ZÁÉÍÓÚÑ])`)
)

// Transform applies the full rewriting pipeline in order: sentence splitting,
// paragraph splitting, connector simplification, vocabulary simplification,
// and whitespace/punctuation cleanup. Splitting runs before the rewriting
// steps because rewriting shortens sentences and must not re-trigger the
// paragraph count logic; cleanup runs last to normalize splice artifacts.
func Transform(html string) string {
	if html == "" {
		return html
	}

	out := paragraphRegex.ReplaceAllStringFunc(html, rewriteParagraph)

	for _, r := range connectorReplacements {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}
	for _, r := range vocabularyReplacements {
		out = r.pattern.ReplaceAllString(out, r.replace)
	}

	out = multiSpaceRegex.ReplaceAllString(out, " ")
	out = multiPeriodRegex.ReplaceAllString(out, ".")
	out = spacedPeriodRegex.ReplaceAllString(out, ".")
	out = periodUpperRegex.ReplaceAllString(out, ". $1")

	return out
}

// rewriteParagraph splits overlong sentences at their midpoint and overlong
// paragraphs into two <p> elements.
func rewriteParagraph(paragraph string) string {
	m := paragraphRegex.FindStringSubmatch(paragraph)
	if m == nil {
		return paragraph
	}
	inner := m[1]

	sentences := splitSentences(inner)
	var rebuilt []string
	for _, s := range sentences {
		words := strings.Fields(s)
		if len(words) > maxSentenceWords {
			mid := len(words) / 2
			rebuilt = append(rebuilt, strings.Join(words[:mid], " "), strings.Join(words[mid:], " "))
			continue
		}
		rebuilt = append(rebuilt, s)
	}

	if len(rebuilt) > maxParagraphSentences {
		// Split at the ceiling of half the sentence count.
		cut := (len(rebuilt) + 1) / 2
		first := ensurePeriod(strings.Join(rebuilt[:cut], ". "))
		second := ensurePeriod(strings.Join(rebuilt[cut:], ". "))
		return "<p>" + first + "</p><p>" + second + "</p>"
	}

	return "<p>" + strings.Join(rebuilt, ". ") + "</p>"
}

// splitSentences naively splits on ". ", filtering empty fragments.
func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}
