package batch

import (
	"fmt"
	"strings"

	"escriba/internal/core"
)

// Template outlines used when the generation backend returns an unusable
// answer. The batch must keep moving, so a generic but valid structure beats
// aborting the account.
var (
	fallbackTitleES    = "Guía sobre %s"
	fallbackTitleEN    = "A guide to %s"
	fallbackSectionsES = []string{
		"Qué es %s y por qué importa",
		"Beneficios de %s",
		"Cómo elegir %s",
		"Errores comunes con %s",
		"Preguntas frecuentes sobre %s",
	}
	fallbackSectionsEN = []string{
		"What %s is and why it matters",
		"Benefits of %s",
		"How to choose %s",
		"Common mistakes with %s",
		"Frequently asked questions about %s",
	}
)

// titleSuffixes are appended, in order, when an account already produced the
// same title this session. Beyond them a numeric ordinal takes over.
var titleSuffixes = map[string][]string{
	"es": {": guía completa", ": consejos prácticos", ": lo que debes saber"},
	"en": {": the complete guide", ": practical tips", ": what you should know"},
}

// usableOutline reports whether a backend outline can drive assembly: it
// needs a title and at least one section, and no section may be titleless.
func usableOutline(o *core.Article) bool {
	if o == nil || strings.TrimSpace(o.Title) == "" || len(o.Sections) == 0 {
		return false
	}
	for _, s := range o.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return false
		}
	}
	return true
}

// fallbackOutline builds a template outline around the primary keyword,
// rotating the remaining keywords through the section templates.
func fallbackOutline(keywords []string, lang string) *core.Article {
	titleTemplate, sectionTemplates := fallbackTitleES, fallbackSectionsES
	if lang == "en" {
		titleTemplate, sectionTemplates = fallbackTitleEN, fallbackSectionsEN
	}

	primary := keywords[0]
	outline := &core.Article{
		Title:           fmt.Sprintf(titleTemplate, primary),
		PrimaryKeywords: keywords,
		Language:        lang,
	}
	for i, tmpl := range sectionTemplates {
		kw := keywords[i%len(keywords)]
		outline.Sections = append(outline.Sections, core.Section{
			Title:    fmt.Sprintf(tmpl, kw),
			Keywords: []string{kw},
		})
	}
	return outline
}

// dedupeTitle returns a title the account has not produced yet: the original
// when it is new, otherwise the first unused suffix variant, and past those a
// numeric ordinal that always terminates.
func dedupeTitle(memory core.AccountMemory, accountUUID, title, lang string) string {
	if !memory.Seen(accountUUID, title) {
		return title
	}

	suffixes := titleSuffixes[lang]
	if suffixes == nil {
		suffixes = titleSuffixes["es"]
	}
	for _, suffix := range suffixes {
		candidate := title + suffix
		if !memory.Seen(accountUUID, candidate) {
			return candidate
		}
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", title, n)
		if !memory.Seen(accountUUID, candidate) {
			return candidate
		}
	}
}
