// Package links embeds internal hyperlinks into article section HTML as
// naturally-anchored text. Three links (home, blog, contact) are placed via
// an ordered list of progressively relaxed strategies, so longer mid-sentence
// anchors are preferred whenever the content volume allows them.
package links

import (
	"fmt"
	"regexp"
	"strings"

	"escriba/internal/core"
	"escriba/internal/logger"
)

// RequiredLinks is how many anchors a linked article must carry.
const RequiredLinks = 3

var (
	paragraphRegex = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	tagRegex       = regexp.MustCompile(`<[^>]+>`)
)

// strategy describes one insertion pass as data: the minimum paragraph word
// count, the anchor window (length and offset back from the midpoint), and
// whether the pass is the fallback phrase append.
type strategy struct {
	minWords          int
	anchorWords       int
	midOffset         int
	requireBareSection bool // skip sections that already contain an anchor
	fallback          bool
}

var strategies = []strategy{
	{minWords: 15, anchorWords: 6, midOffset: 3},
	{minWords: 10, anchorWords: 5, midOffset: 2, requireBareSection: true},
	{minWords: 6, anchorWords: 4, midOffset: 1, requireBareSection: true},
	{minWords: 1, fallback: true},
}

// fallbackPhrases are the pre-written call-to-action sentences used by the
// last strategy, selected by insertion index so they pair with the home,
// blog, and contact links respectively. Each has one %s for the href.
var fallbackPhrases = []string{
	`Descubre todo lo que ofrecemos en <a href="%s" target="_blank" rel="noopener noreferrer">nuestra página principal</a>.`,
	`Encuentra más artículos como este en <a href="%s" target="_blank" rel="noopener noreferrer">nuestro blog</a>.`,
	`¿Tienes dudas? <a href="%s" target="_blank" rel="noopener noreferrer">Contáctanos</a> y te ayudamos.`,
}

// Insert places up to RequiredLinks anchors across the sections, consuming
// links in order, and returns the updated sections with the insertion count.
// Fewer than RequiredLinks supplied links fails open: the input is returned
// unchanged with a warning, and the hard-error enforcement happens one level
// up in the assembly pipeline.
func Insert(sections []core.Section, linkURLs []string) ([]core.Section, int) {
	if len(linkURLs) < RequiredLinks {
		logger.Warn("link insertion skipped: fewer than 3 links supplied", map[string]any{"links": len(linkURLs)})
		return sections, 0
	}

	inserted := 0
	for passNum, st := range strategies {
		if inserted >= RequiredLinks {
			break
		}
		if st.fallback {
			inserted = runFallback(sections, linkURLs, inserted)
			continue
		}
		for si := range sections {
			if inserted >= RequiredLinks {
				break
			}
			if st.requireBareSection && strings.Contains(sections[si].Content, "<a ") {
				continue
			}
			content, ok := spliceFirstParagraph(sections[si].Content, st, linkURLs[inserted])
			if ok {
				sections[si].Content = content
				inserted++
				logger.Debug("anchor inserted", map[string]any{"pass": passNum + 1, "section": sections[si].Title, "total": inserted})
			}
		}
	}

	return sections, inserted
}

// spliceFirstParagraph rebuilds the first qualifying paragraph of the section
// content as before + anchor + after, preserving the flanking words as plain
// text. Only markup-free paragraphs qualify, so anchor text never swallows a
// tag. Returns the updated content and whether an insertion happened.
func spliceFirstParagraph(content string, st strategy, href string) (string, bool) {
	locs := paragraphRegex.FindAllStringSubmatchIndex(content, -1)
	for _, loc := range locs {
		inner := content[loc[2]:loc[3]]
		if strings.Contains(inner, "<") {
			continue
		}
		words := strings.Fields(inner)
		if len(words) < st.minWords {
			continue
		}

		start := len(words)/2 - st.midOffset
		if start < 0 {
			start = 0
		}
		length := st.anchorWords
		if start+length > len(words) {
			length = len(words) - start
		}
		if length < 1 {
			continue
		}

		anchorText := strings.Join(words[start:start+length], " ")
		anchor := fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, href, anchorText)

		var parts []string
		if before := strings.Join(words[:start], " "); before != "" {
			parts = append(parts, before)
		}
		parts = append(parts, anchor)
		if after := strings.Join(words[start+length:], " "); after != "" {
			parts = append(parts, after)
		}

		rebuilt := content[:loc[2]] + strings.Join(parts, " ") + content[loc[3]:]
		return rebuilt, true
	}
	return content, false
}

// runFallback appends a call-to-action phrase to paragraphs that carry no
// anchor yet, regardless of length, until the required count is reached.
func runFallback(sections []core.Section, linkURLs []string, inserted int) int {
	for si := range sections {
		for inserted < RequiredLinks {
			content, ok := appendPhrase(sections[si].Content, linkURLs[inserted], fallbackPhrases[inserted])
			if !ok {
				break
			}
			sections[si].Content = content
			inserted++
			logger.Debug("fallback anchor appended", map[string]any{"section": sections[si].Title, "total": inserted})
		}
		if inserted >= RequiredLinks {
			break
		}
	}
	return inserted
}

// appendPhrase adds the CTA phrase to the first paragraph of the section that
// has at least one word and no existing anchor.
func appendPhrase(content, href, phrase string) (string, bool) {
	locs := paragraphRegex.FindAllStringSubmatchIndex(content, -1)
	for _, loc := range locs {
		inner := content[loc[2]:loc[3]]
		if strings.Contains(inner, "<a") {
			continue
		}
		if len(strings.Fields(stripTags(inner))) < 1 {
			continue
		}
		addition := " " + fmt.Sprintf(phrase, href)
		rebuilt := content[:loc[3]] + addition + content[loc[3]:]
		return rebuilt, true
	}
	return content, false
}

func stripTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}

// SiteLinks derives the three canonical internal routes for a client website.
func SiteLinks(website string) []string {
	base := strings.TrimRight(website, "/")
	return []string{base + "/", base + "/blog", base + "/contacto"}
}
