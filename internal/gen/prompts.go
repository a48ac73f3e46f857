package gen

// keywordsPromptTemplate derives the 5 primary SEO keywords from the brief
// context. The response must be a JSON object.
const keywordsPromptTemplate = `You are an SEO specialist. From the following business context, derive the 5 best SEO keywords to build blog content around. Prefer specific, purchase-intent phrases over generic terms.

Respond ONLY with JSON in this exact shape:
{"keywords": ["...", "...", "...", "...", "..."]}

Business context:
---
%s
---`

// outlinePromptTemplate produces the article title and H2 section list.
// Parameters: language, content-type instruction, topic, keyword list.
const outlinePromptTemplate = `You are an SEO content strategist. Write in %s. %s

Create a blog article outline for the topic "%s" targeting these keywords: %s.

Rules:
- 4 to 6 H2 sections, each with 2-3 section-specific keywords.
- Section titles must not end with a period.
- The title must be compelling and contain the main keyword.

Respond ONLY with JSON in this exact shape:
{"title": "...", "sections": [{"title": "...", "keywords": ["...", "..."]}]}`

// sectionPromptTemplate produces the HTML prose for one H2 section.
// Parameters: language, article title, section title, section keywords.
const sectionPromptTemplate = `You are an SEO copywriter. Write in %s.

Write the body of one section of the blog article titled "%s". The section heading is "%s" (do not repeat the heading in your output). Work in these keywords naturally: %s.

Rules:
- 150-250 words.
- Use ONLY these HTML tags: <p>, <strong>, <ul>, <li>, <a>. No headings, no images, no other markup.
- Short sentences. Simple vocabulary. Direct tone addressing the reader.
- Output the raw HTML fragment only, with no commentary.`

// contentTypeInstruction varies the editorial angle per article index so a
// batch of articles for one account does not read repetitively.
func contentTypeInstruction(contentType string) string {
	switch contentType {
	case "comprehensive":
		return "Make it a comprehensive long-form guide that covers the topic end to end."
	case "quick-tips":
		return "Make it a practical quick-tips piece: actionable advice, lists, concrete examples."
	case "deep-dive":
		return "Make it a deep dive into one angle of the topic, with specifics and detail."
	default:
		return "Make it a standard informative article."
	}
}

// ContentTypeForIndex returns the requested content type for the nth article
// of an account: the first is standard, later ones cycle the variants.
func ContentTypeForIndex(articleIndex int) string {
	if articleIndex == 0 {
		return "standard"
	}
	variants := []string{"comprehensive", "quick-tips", "deep-dive"}
	return variants[(articleIndex-1)%len(variants)]
}
