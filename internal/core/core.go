package core

import "time"

// Section is one H2 block of an article under construction.
type Section struct {
	ID       string   `json:"id"`       // Stable identifier, assigned as "section-{index+1}" when missing
	Title    string   `json:"title"`    // H2 heading text, never ends with a period
	Content  string   `json:"content"`  // HTML fragment; empty until the writing step fills it
	Keywords []string `json:"keywords"` // Section-local SEO terms
}

// FeaturedImage holds the generated cover image and its metadata.
type FeaturedImage struct {
	Prompt  string `json:"prompt"`   // Prompt used to generate the image
	Size    string `json:"size"`     // Final dimensions, e.g. "1536x864"
	AltText string `json:"alt_text"` // Accessibility alt text
	Base64  string `json:"base64"`   // JPEG bytes, base64 encoded
}

// Article is the mutable aggregate built by the assembly pipeline.
// It is not publishable until every section has content and, when a client
// website is known, at least 3 anchors exist across all sections combined.
type Article struct {
	ID              string         `json:"id"`               // Unique identifier for this assembly run
	Title           string         `json:"title"`            // Article title (H1)
	Sections        []Section      `json:"sections"`         // Ordered; order is the H2 order of the final document
	PrimaryKeywords []string       `json:"primary_keywords"` // Keywords driving outline and image generation
	FeaturedImage   *FeaturedImage `json:"featured_image"`   // Mandatory before publish
	Language        string         `json:"language"`         // Prose language, "es" or "en"
	DateAssembled   time.Time      `json:"date_assembled"`   // When assembly completed
}

// CsvRow is one batch task descriptor parsed from the uploaded CSV.
// Rows are read-only during batch execution.
type CsvRow struct {
	AccountUUID      string   `json:"account_uuid"`       // Account whose brief drives generation
	Keywords         string   `json:"keywords"`           // Comma-joined keyword list from the "kw" column
	TaskCount        int      `json:"task_count"`         // Articles to produce for this account, defaults to 1
	TrackerTaskIDs   []string `json:"tracker_task_ids"`   // Primary tracker tasks, consumed in publish order
	SecondaryTaskIDs []string `json:"secondary_task_ids"` // Optional secondary-tracker tasks
}

// BatchProgress is a read-only display snapshot of the orchestrator state.
// Decision logic never reads it; it exists for the operator surface only.
type BatchProgress struct {
	CurrentAccountIndex     int      `json:"current_account_index"`
	TotalAccounts           int      `json:"total_accounts"`
	CurrentArticleIndex     int      `json:"current_article_index"`
	TotalArticlesForAccount int      `json:"total_articles_for_account"`
	PublishedURLs           []string `json:"published_urls"` // Append-only, order = publish order
	IsComplete              bool     `json:"is_complete"`
	CurrentAccountUUID      string   `json:"current_account_uuid"`
}

// AccountMemory records the titles already generated per account in this
// session, so a batch run never repeats a title within one account.
type AccountMemory map[string][]string

// Remember appends a title to the account's history.
func (m AccountMemory) Remember(accountUUID, title string) {
	m[accountUUID] = append(m[accountUUID], title)
}

// Seen reports whether the account already produced this exact title.
func (m AccountMemory) Seen(accountUUID, title string) bool {
	for _, t := range m[accountUUID] {
		if t == title {
			return true
		}
	}
	return false
}

// BatchContext carries the per-account values valid for the current loop
// iteration. It is threaded through every orchestration step explicitly so
// nothing reads ambient state from a previous account.
type BatchContext struct {
	AccountUUID string   // Account being processed
	Context     string   // Bounded plain-text brief context
	Website     string   // Detected client website ("" when none); gates link insertion
	Keywords    []string // Working keyword pool, rotated once per completed article
	Language    string   // Detected brief language, "es" or "en"
}

// RotateKeywords moves the first keyword to the back of the pool, biasing the
// next article toward a different primary keyword.
func (b *BatchContext) RotateKeywords() {
	if len(b.Keywords) < 2 {
		return
	}
	b.Keywords = append(b.Keywords[1:], b.Keywords[0])
}
