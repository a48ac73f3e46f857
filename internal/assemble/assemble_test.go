package assemble

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"escriba/internal/core"
	"escriba/internal/runlog"
)

type fakeWriter struct {
	content string
	err     error
	calls   []string
}

func (f *fakeWriter) SectionContent(_ context.Context, _ string, section core.Section, _ string) (string, error) {
	f.calls = append(f.calls, section.Title)
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

type fakeImages struct {
	err   error
	calls int
}

func (f *fakeImages) GenerateFeatured(_ context.Context, keyword, title string) (*core.FeaturedImage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &core.FeaturedImage{Prompt: keyword + "/" + title, Size: "1536x864", Base64: "ZmFrZQ=="}, nil
}

func outlineFixture() *core.Article {
	return &core.Article{
		Title:           "Guía sobre jardinería",
		PrimaryKeywords: []string{"jardinería", "mantenimiento de jardines"},
		Language:        "es",
		Sections: []core.Section{
			{Title: "Qué es la jardinería"},
			{Title: "Beneficios del mantenimiento"},
			{Title: "Cómo empezar"},
		},
	}
}

func longContent() string {
	return "<p>Este es un párrafo bastante largo que contiene suficientes palabras como para permitir una inserción natural de un enlace interno dentro del texto generado.</p>"
}

func newAssembler(w SectionWriter, i ImageGenerator) *Assembler {
	return New(w, i, runlog.NewWithWriter(nil))
}

func TestAssemble_WithWebsite(t *testing.T) {
	writer := &fakeWriter{content: longContent()}
	images := &fakeImages{}

	article, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "https://midominio.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"Qué es la jardinería", "Beneficios del mantenimiento", "Cómo empezar"}, writer.calls,
		"sections must be written in outline order")
	assert.GreaterOrEqual(t, CountAnchors(article.Sections), 3, "linked article needs at least 3 anchors")
	require.NotNil(t, article.FeaturedImage)
	assert.Equal(t, "1536x864", article.FeaturedImage.Size)
	for i, s := range article.Sections {
		assert.Equal(t, fmt.Sprintf("section-%d", i+1), s.ID)
		assert.NotEmpty(t, s.Content)
	}
}

func TestAssemble_WithoutWebsiteSkipsLinks(t *testing.T) {
	writer := &fakeWriter{content: longContent()}
	images := &fakeImages{}

	article, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, CountAnchors(article.Sections), "no links without a website")
	require.NotNil(t, article.FeaturedImage)
}

func TestAssemble_SparseContentFailsHard(t *testing.T) {
	// No paragraphs at all: the inserter cannot place a single link.
	writer := &fakeWriter{content: "<ul><li>solo una lista</li></ul>"}
	images := &fakeImages{}

	_, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "https://midominio.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientLinks)
	assert.Equal(t, 0, images.calls, "image must not be generated after a link failure")
}

func TestAssemble_EmptyOutline(t *testing.T) {
	_, err := newAssembler(&fakeWriter{}, &fakeImages{}).Assemble(context.Background(), &core.Article{}, "")
	assert.ErrorIs(t, err, ErrEmptyOutline)
}

func TestAssemble_WriterErrorAborts(t *testing.T) {
	writer := &fakeWriter{err: errors.New("backend down")}
	images := &fakeImages{}

	_, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "")

	require.Error(t, err)
	assert.Equal(t, 0, images.calls)
}

func TestAssemble_ImageErrorAborts(t *testing.T) {
	writer := &fakeWriter{content: longContent()}
	images := &fakeImages{err: errors.New("image service down")}

	_, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "featured image is mandatory")
}

func TestAssemble_SanitizesDisallowedMarkup(t *testing.T) {
	writer := &fakeWriter{content: "<p>Texto válido con <script>alert(1)</script> y <em>énfasis</em> y más palabras.</p>"}
	images := &fakeImages{}

	article, err := newAssembler(writer, images).Assemble(context.Background(), outlineFixture(), "")
	require.NoError(t, err)

	for _, s := range article.Sections {
		assert.NotContains(t, s.Content, "<script")
		assert.NotContains(t, s.Content, "<em>")
	}
}
