package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escriba/internal/config"
	"escriba/internal/core"
	"escriba/internal/runlog"
)

const briefHTML = `<html><body>
<p>Somos una empresa de jardinería en Madrid con veinte años de experiencia cuidando jardines.</p>
<p>¿Tienes página web? Sí, puedes visitarnos en midominio.com para más información.</p>
</body></html>`

type fakeBriefs struct {
	payload any
	err     error
}

func (f *fakeBriefs) Fetch(_ context.Context, _ string) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeOutliner struct {
	title    string
	unusable bool
	sections []core.Section
	topics   []string
}

func (f *fakeOutliner) Outline(_ context.Context, topic string, keywords []string, _, lang string) (*core.Article, error) {
	f.topics = append(f.topics, topic)
	if f.unusable {
		return nil, nil
	}
	sections := f.sections
	if sections == nil {
		sections = []core.Section{{Title: "Sección única"}}
	}
	return &core.Article{
		Title:           f.title,
		PrimaryKeywords: keywords,
		Language:        lang,
		Sections:        sections,
	}, nil
}

type fakeAssembler struct{ err error }

func (f *fakeAssembler) Assemble(_ context.Context, outline *core.Article, website string) (*core.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	article := *outline
	article.FeaturedImage = &core.FeaturedImage{Size: "1536x864"}
	return &article, nil
}

type fakePublisher struct {
	err    error
	titles []string
}

func (f *fakePublisher) Publish(_ context.Context, article *core.Article) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.titles = append(f.titles, article.Title)
	return fmt.Sprintf("https://clientsite.com/blog/post-%d", len(f.titles)), nil
}

type trackerCall struct{ taskID, url string }

type fakePrimary struct {
	err   error
	calls []trackerCall
}

func (f *fakePrimary) Complete(_ context.Context, taskID, publishedURL string) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, trackerCall{taskID, publishedURL})
	return nil
}

type fakeSecondary struct{ assigned []string }

func (f *fakeSecondary) Assign(_ context.Context, taskID string) error {
	f.assigned = append(f.assigned, taskID)
	return nil
}

func noPacing() config.Batch {
	return config.Batch{StepDelay: "0s", ArticleDelay: "0s", AccountDelay: "0s"}
}

func TestRun_EndToEnd(t *testing.T) {
	briefs := &fakeBriefs{payload: briefHTML}
	outliner := &fakeOutliner{title: "Jardinería para principiantes"}
	publisher := &fakePublisher{}
	primary := &fakePrimary{}
	secondary := &fakeSecondary{}

	o := New(briefs, outliner, &fakeAssembler{}, publisher, primary, secondary, noPacing(), runlog.NewWithWriter(nil))

	rows := []core.CsvRow{{
		AccountUUID:      "acc-1",
		Keywords:         "jardinería, paisajismo",
		TaskCount:        2,
		TrackerTaskIDs:   []string{"t-1", "t-2"},
		SecondaryTaskIDs: []string{"s-1"},
	}}

	require.NoError(t, o.Run(context.Background(), rows))

	progress := o.Progress()
	assert.True(t, progress.IsComplete)
	require.Len(t, progress.PublishedURLs, 2)

	// Keyword rotation: the second article targets the next keyword.
	assert.Equal(t, []string{"jardinería", "paisajismo"}, outliner.topics)

	// Both tracker tasks closed, each with its own URL in publish order.
	require.Len(t, primary.calls, 2)
	assert.Equal(t, trackerCall{"t-1", progress.PublishedURLs[0]}, primary.calls[0])
	assert.Equal(t, trackerCall{"t-2", progress.PublishedURLs[1]}, primary.calls[1])
	assert.Equal(t, []string{"s-1"}, secondary.assigned)

	assert.Equal(t, StateComplete, o.CurrentState())
}

func TestRun_TitleDeduplication(t *testing.T) {
	outliner := &fakeOutliner{title: "Guía sobre jardinería"}
	publisher := &fakePublisher{}

	o := New(&fakeBriefs{payload: briefHTML}, outliner, &fakeAssembler{}, publisher, nil, nil, noPacing(), runlog.NewWithWriter(nil))
	rows := []core.CsvRow{{AccountUUID: "acc-1", Keywords: "jardinería", TaskCount: 3}}

	require.NoError(t, o.Run(context.Background(), rows))
	require.Len(t, publisher.titles, 3)

	assert.Equal(t, "Guía sobre jardinería", publisher.titles[0])
	seen := map[string]bool{}
	for _, title := range publisher.titles {
		assert.False(t, seen[title], "duplicate title published: %s", title)
		seen[title] = true
	}
}

func TestRun_FallbackOutline(t *testing.T) {
	outliner := &fakeOutliner{unusable: true}
	publisher := &fakePublisher{}

	o := New(&fakeBriefs{payload: briefHTML}, outliner, &fakeAssembler{}, publisher, nil, nil, noPacing(), runlog.NewWithWriter(nil))
	rows := []core.CsvRow{{AccountUUID: "acc-1", Keywords: "jardinería", TaskCount: 1}}

	require.NoError(t, o.Run(context.Background(), rows))
	require.Len(t, publisher.titles, 1)
	assert.Contains(t, publisher.titles[0], "jardinería", "template title must carry the primary keyword")
}

func TestRun_TitlelessSectionsTriggerFallback(t *testing.T) {
	outliner := &fakeOutliner{
		title:    "Título aparentemente válido",
		sections: []core.Section{{Title: ""}, {Title: "  "}},
	}
	publisher := &fakePublisher{}

	o := New(&fakeBriefs{payload: briefHTML}, outliner, &fakeAssembler{}, publisher, nil, nil, noPacing(), runlog.NewWithWriter(nil))
	rows := []core.CsvRow{{AccountUUID: "acc-1", Keywords: "jardinería", TaskCount: 1}}

	require.NoError(t, o.Run(context.Background(), rows))
	require.Len(t, publisher.titles, 1)
	assert.Contains(t, publisher.titles[0], "jardinería", "blank-section outline must be replaced by the template")
	assert.NotEqual(t, "Título aparentemente válido", publisher.titles[0])
}

func TestUsableOutline(t *testing.T) {
	good := &core.Article{Title: "Guía", Sections: []core.Section{{Title: "Una"}, {Title: "Dos"}}}
	assert.True(t, usableOutline(good))

	assert.False(t, usableOutline(nil))
	assert.False(t, usableOutline(&core.Article{Title: " ", Sections: good.Sections}))
	assert.False(t, usableOutline(&core.Article{Title: "Guía"}))
	assert.False(t, usableOutline(&core.Article{Title: "Guía", Sections: []core.Section{{Title: "Una"}, {Title: "\t"}}}))
}

func TestRun_BriefFailureAborts(t *testing.T) {
	o := New(&fakeBriefs{err: errors.New("brief API down")}, &fakeOutliner{title: "x"}, &fakeAssembler{},
		&fakePublisher{}, nil, nil, noPacing(), runlog.NewWithWriter(nil))

	err := o.Run(context.Background(), []core.CsvRow{{AccountUUID: "acc-1", Keywords: "kw", TaskCount: 1}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acc-1")
	assert.False(t, o.Progress().IsComplete)
}

func TestRun_PublishFailureAborts(t *testing.T) {
	primary := &fakePrimary{}
	o := New(&fakeBriefs{payload: briefHTML}, &fakeOutliner{title: "Título"}, &fakeAssembler{},
		&fakePublisher{err: errors.New("CMS rejected the post")}, primary, nil, noPacing(), runlog.NewWithWriter(nil))

	err := o.Run(context.Background(), []core.CsvRow{{AccountUUID: "acc-1", Keywords: "kw", TaskCount: 1, TrackerTaskIDs: []string{"t-1"}}})

	require.Error(t, err)
	assert.Empty(t, primary.calls, "trackers must not be touched after a failed publish")
}

func TestRun_TrackerFailureAborts(t *testing.T) {
	o := New(&fakeBriefs{payload: briefHTML}, &fakeOutliner{title: "Título"}, &fakeAssembler{},
		&fakePublisher{}, &fakePrimary{err: errors.New("tracker down")}, nil, noPacing(), runlog.NewWithWriter(nil))

	err := o.Run(context.Background(), []core.CsvRow{{AccountUUID: "acc-1", Keywords: "kw", TaskCount: 1, TrackerTaskIDs: []string{"t-1"}}})

	require.Error(t, err)
	assert.False(t, o.Progress().IsComplete)
}

func TestRun_MoreTasksThanURLs(t *testing.T) {
	primary := &fakePrimary{}
	o := New(&fakeBriefs{payload: briefHTML}, &fakeOutliner{title: "Título"}, &fakeAssembler{},
		&fakePublisher{}, primary, nil, noPacing(), runlog.NewWithWriter(nil))

	rows := []core.CsvRow{{AccountUUID: "acc-1", Keywords: "kw", TaskCount: 1, TrackerTaskIDs: []string{"t-1", "t-2"}}}
	require.NoError(t, o.Run(context.Background(), rows))

	require.Len(t, primary.calls, 1, "only tasks with a published URL are closed")
	assert.Equal(t, "t-1", primary.calls[0].taskID)
}

func TestRun_EmptyBatch(t *testing.T) {
	o := New(&fakeBriefs{}, &fakeOutliner{}, &fakeAssembler{}, &fakePublisher{}, nil, nil, noPacing(), runlog.NewWithWriter(nil))
	require.Error(t, o.Run(context.Background(), nil))
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitKeywords(" a , b "))
	assert.Len(t, splitKeywords("a,b,c,d,e,f,g"), 5, "keyword pool is capped at 5")
	assert.Nil(t, splitKeywords(" , ,"))
}

func TestDedupeTitle_OrdinalTermination(t *testing.T) {
	memory := core.AccountMemory{}
	title := "Guía sobre jardinería"

	var produced []string
	for i := 0; i < 6; i++ {
		next := dedupeTitle(memory, "acc-1", title, "es")
		memory.Remember("acc-1", next)
		produced = append(produced, next)
	}

	seen := map[string]bool{}
	for _, p := range produced {
		assert.False(t, seen[p], "dedupe produced a repeat: %s", p)
		seen[p] = true
	}
	assert.Equal(t, title, produced[0])
	assert.Equal(t, title+": guía completa", produced[1])
	assert.Equal(t, title+" (2)", produced[4])
}
