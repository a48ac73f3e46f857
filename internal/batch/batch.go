// Package batch runs the multi-account production loop: for each CSV row it
// loads the account brief, generates and assembles the requested number of
// articles, publishes them, and finally syncs the task trackers.
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"escriba/internal/brief"
	"escriba/internal/config"
	"escriba/internal/core"
	"escriba/internal/gen"
	"escriba/internal/runlog"
)

// State identifies the orchestrator's current phase. It exists for the
// operator surface; no decision logic branches on it.
type State string

const (
	StateIdle              State = "IDLE"
	StateLoadingAccount    State = "LOADING_ACCOUNT"
	StateGeneratingOutline State = "GENERATING_OUTLINE"
	StateWriting           State = "WRITING"
	StatePublishing        State = "PUBLISHING"
	StateComplete          State = "COMPLETE"
)

// BriefSource fetches the raw account brief.
type BriefSource interface {
	Fetch(ctx context.Context, accountUUID string) (any, error)
}

// OutlineGenerator produces an article outline. A (nil, nil) return means
// the backend answer was unusable and the caller must fall back.
type OutlineGenerator interface {
	Outline(ctx context.Context, topic string, keywords []string, contentType, lang string) (*core.Article, error)
}

// Assembler turns an outline into a complete article.
type Assembler interface {
	Assemble(ctx context.Context, outline *core.Article, website string) (*core.Article, error)
}

// Publisher pushes a completed article and returns its public URL.
type Publisher interface {
	Publish(ctx context.Context, article *core.Article) (string, error)
}

// PrimaryTracker closes one task with its published URL.
type PrimaryTracker interface {
	Complete(ctx context.Context, taskID, publishedURL string) error
}

// SecondaryTracker marks one task assigned.
type SecondaryTracker interface {
	Assign(ctx context.Context, taskID string) error
}

// Orchestrator drives a batch run. Trackers may be nil when the run has no
// tracker columns to honor.
type Orchestrator struct {
	briefs    BriefSource
	outliner  OutlineGenerator
	assembler Assembler
	publisher Publisher
	primary   PrimaryTracker
	secondary SecondaryTracker
	log       *runlog.Log

	stepDelay    time.Duration
	articleDelay time.Duration
	accountDelay time.Duration

	mu       sync.Mutex
	state    State
	progress core.BatchProgress
}

// runState is the mutable working set of one Run call. It lives on the Run
// stack and is never shared; Progress exposes copies only.
type runState struct {
	rows    []core.CsvRow
	memory  core.AccountMemory
	rowURLs [][]string // published URLs per row, in publish order
}

// New creates an orchestrator.
func New(briefs BriefSource, outliner OutlineGenerator, assembler Assembler, publisher Publisher,
	primary PrimaryTracker, secondary SecondaryTracker, pacing config.Batch, log *runlog.Log) *Orchestrator {
	if log == nil {
		log = runlog.NewWithWriter(nil)
	}
	return &Orchestrator{
		briefs:       briefs,
		outliner:     outliner,
		assembler:    assembler,
		publisher:    publisher,
		primary:      primary,
		secondary:    secondary,
		log:          log,
		stepDelay:    parseDelay(pacing.StepDelay, 800*time.Millisecond),
		articleDelay: parseDelay(pacing.ArticleDelay, 2*time.Second),
		accountDelay: parseDelay(pacing.AccountDelay, 3*time.Second),
		state:        StateIdle,
	}
}

// Run processes every row in order. Any failure aborts the whole batch:
// a half-finished run with accurate trackers beats a complete run that
// silently skipped accounts.
func (o *Orchestrator) Run(ctx context.Context, rows []core.CsvRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("batch has no rows to process")
	}

	rs := &runState{
		rows:    rows,
		memory:  core.AccountMemory{},
		rowURLs: make([][]string, len(rows)),
	}
	o.resetProgress(len(rows))

	for rowIdx, row := range rows {
		o.setState(StateLoadingAccount)
		o.updateProgress(func(p *core.BatchProgress) {
			p.CurrentAccountIndex = rowIdx
			p.CurrentAccountUUID = row.AccountUUID
			p.CurrentArticleIndex = 0
			p.TotalArticlesForAccount = row.TaskCount
		})
		o.log.Infof("Cuenta %d/%d: %s (%d artículos)", rowIdx+1, len(rows), row.AccountUUID, row.TaskCount)

		bctx, err := o.loadAccount(ctx, row)
		if err != nil {
			return fmt.Errorf("account %s: %w", row.AccountUUID, err)
		}

		for articleIdx := 0; articleIdx < row.TaskCount; articleIdx++ {
			o.updateProgress(func(p *core.BatchProgress) { p.CurrentArticleIndex = articleIdx })

			url, err := o.produceArticle(ctx, bctx, rs.memory, articleIdx)
			if err != nil {
				return fmt.Errorf("account %s, article %d: %w", row.AccountUUID, articleIdx+1, err)
			}

			rs.rowURLs[rowIdx] = append(rs.rowURLs[rowIdx], url)
			o.updateProgress(func(p *core.BatchProgress) { p.PublishedURLs = append(p.PublishedURLs, url) })
			bctx.RotateKeywords()

			if articleIdx < row.TaskCount-1 {
				if err := o.pause(ctx, o.articleDelay); err != nil {
					return err
				}
			}
		}

		if rowIdx < len(rows)-1 {
			if err := o.pause(ctx, o.accountDelay); err != nil {
				return err
			}
		}
	}

	o.setState(StateComplete)
	if err := o.syncTrackers(ctx, rs); err != nil {
		return err
	}
	o.updateProgress(func(p *core.BatchProgress) { p.IsComplete = true })
	o.log.Infof("Lote completado: %d artículos publicados", len(o.Progress().PublishedURLs))
	return nil
}

// loadAccount fetches the brief and derives the per-account working context:
// bounded text, detected website and language, and the keyword pool.
func (o *Orchestrator) loadAccount(ctx context.Context, row core.CsvRow) (*core.BatchContext, error) {
	raw, err := o.briefs.Fetch(ctx, row.AccountUUID)
	if err != nil {
		return nil, fmt.Errorf("brief fetch failed: %w", err)
	}

	var html string
	if s, ok := raw.(string); ok {
		html = s
	}
	contextText := brief.ExtractContext(raw)
	website := brief.ExtractWebsite(html)
	lang := brief.DetectLanguage(contextText)

	keywords := splitKeywords(row.Keywords)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("row has no usable keywords")
	}

	if website != "" {
		o.log.Infof("Sitio web detectado: %s", website)
	} else {
		o.log.Warnf("Sin sitio web en el brief: los artículos no llevarán enlaces internos")
	}

	return &core.BatchContext{
		AccountUUID: row.AccountUUID,
		Context:     contextText,
		Website:     website,
		Keywords:    keywords,
		Language:    lang,
	}, nil
}

// produceArticle runs outline, assembly and publish for one article and
// returns its public URL.
func (o *Orchestrator) produceArticle(ctx context.Context, bctx *core.BatchContext, memory core.AccountMemory, articleIdx int) (string, error) {
	o.setState(StateGeneratingOutline)
	outline, err := o.generateOutline(ctx, bctx, memory, articleIdx)
	if err != nil {
		return "", err
	}
	if err := o.pause(ctx, o.stepDelay); err != nil {
		return "", err
	}

	o.setState(StateWriting)
	article, err := o.assembler.Assemble(ctx, outline, bctx.Website)
	if err != nil {
		return "", err
	}
	if err := o.pause(ctx, o.stepDelay); err != nil {
		return "", err
	}

	o.setState(StatePublishing)
	url, err := o.publisher.Publish(ctx, article)
	if err != nil {
		return "", fmt.Errorf("publish failed: %w", err)
	}
	o.log.Infof("Publicado: %s", url)
	return url, nil
}

// generateOutline asks the backend for an outline, falls back to a template
// outline when the answer is unusable, and de-duplicates the title against
// everything this account already produced in the session.
func (o *Orchestrator) generateOutline(ctx context.Context, bctx *core.BatchContext, memory core.AccountMemory, articleIdx int) (*core.Article, error) {
	primaryKeyword := bctx.Keywords[0]
	contentType := gen.ContentTypeForIndex(articleIdx)

	outline, err := o.outliner.Outline(ctx, primaryKeyword, bctx.Keywords, contentType, bctx.Language)
	if err != nil {
		return nil, err
	}
	if !usableOutline(outline) {
		o.log.Warnf("Esquema inválido del backend: se usa la plantilla para %q", primaryKeyword)
		outline = fallbackOutline(bctx.Keywords, bctx.Language)
	}

	outline.Title = dedupeTitle(memory, bctx.AccountUUID, outline.Title, bctx.Language)
	memory.Remember(bctx.AccountUUID, outline.Title)
	return outline, nil
}

// syncTrackers closes the primary tracker tasks of every row in publish
// order and assigns the secondary tasks. A row with more tasks than
// published URLs leaves the extra tasks untouched.
func (o *Orchestrator) syncTrackers(ctx context.Context, rs *runState) error {
	for rowIdx, row := range rs.rows {
		urls := rs.rowURLs[rowIdx]

		if o.primary == nil && len(row.TrackerTaskIDs) > 0 {
			o.log.Infof("Tracker principal sin configurar: se omiten %d tareas de %s", len(row.TrackerTaskIDs), row.AccountUUID)
		}
		if o.primary != nil {
			for i, taskID := range row.TrackerTaskIDs {
				if i >= len(urls) {
					o.log.Warnf("Tarea %s sin URL publicada: se deja abierta", taskID)
					break
				}
				if err := o.primary.Complete(ctx, taskID, urls[i]); err != nil {
					return fmt.Errorf("tracker sync for account %s: %w", row.AccountUUID, err)
				}
			}
		}

		switch {
		case o.secondary != nil:
			for _, taskID := range row.SecondaryTaskIDs {
				if err := o.secondary.Assign(ctx, taskID); err != nil {
					return fmt.Errorf("secondary tracker sync for account %s: %w", row.AccountUUID, err)
				}
			}
		case len(row.SecondaryTaskIDs) > 0:
			o.log.Infof("Tracker secundario sin configurar: se omiten %d tareas de %s", len(row.SecondaryTaskIDs), row.AccountUUID)
		}
	}
	return nil
}

// Progress returns a snapshot safe to render from another goroutine.
func (o *Orchestrator) Progress() core.BatchProgress {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := o.progress
	snapshot.PublishedURLs = append([]string(nil), o.progress.PublishedURLs...)
	return snapshot
}

// CurrentState returns the orchestrator phase for display.
func (o *Orchestrator) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) resetProgress(totalAccounts int) {
	o.mu.Lock()
	o.progress = core.BatchProgress{TotalAccounts: totalAccounts}
	o.mu.Unlock()
}

func (o *Orchestrator) updateProgress(apply func(*core.BatchProgress)) {
	o.mu.Lock()
	apply(&o.progress)
	o.mu.Unlock()
}

// pause sleeps for the pacing delay unless the context ends first.
func (o *Orchestrator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// splitKeywords parses the CSV keyword cell into at most 5 keywords.
func splitKeywords(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			out = append(out, kw)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}

func parseDelay(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
