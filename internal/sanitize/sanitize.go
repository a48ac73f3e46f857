// Package sanitize restricts generated section HTML to the tag set the
// article contract allows.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

// newPolicy builds the section-content policy: only p, strong, ul, li and a
// survive, and anchors keep their href/target/rel attributes.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "strong", "ul", "li")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowStandardURLs()
	return p
}

// SectionHTML sanitizes a generated section fragment and trims surrounding
// whitespace.
func SectionHTML(html string) string {
	return strings.TrimSpace(policy.Sanitize(html))
}
