// Package assemble builds one complete, publish-ready article from an
// outline: section prose, readability rewriting, mandatory internal links
// when a client website is known, and the featured image.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"escriba/internal/core"
	"escriba/internal/links"
	"escriba/internal/readability"
	"escriba/internal/runlog"
	"escriba/internal/sanitize"
)

// Publish-blocking validation errors. These must stop the pipeline before
// anything reaches the CMS.
var (
	ErrEmptyOutline      = errors.New("outline has no sections")
	ErrInsufficientLinks = errors.New("fewer than 3 internal links could be inserted")
)

// SectionWriter produces the HTML prose for one section.
type SectionWriter interface {
	SectionContent(ctx context.Context, articleTitle string, section core.Section, lang string) (string, error)
}

// ImageGenerator produces the mandatory featured image.
type ImageGenerator interface {
	GenerateFeatured(ctx context.Context, primaryKeyword, title string) (*core.FeaturedImage, error)
}

// Assembler coordinates the single-article unit of work.
type Assembler struct {
	writer SectionWriter
	images ImageGenerator
	log    *runlog.Log
}

// New creates an assembler with its collaborators.
func New(writer SectionWriter, images ImageGenerator, log *runlog.Log) *Assembler {
	if log == nil {
		log = runlog.NewWithWriter(nil)
	}
	return &Assembler{writer: writer, images: images, log: log}
}

// Assemble runs the strict-order pipeline: write every section in outline
// order, insert internal links when a website is known, generate the image,
// and return the completed article. Any step's error aborts the whole
// assembly; there is no partial publish.
func (a *Assembler) Assemble(ctx context.Context, outline *core.Article, website string) (*core.Article, error) {
	if outline == nil || len(outline.Sections) == 0 {
		return nil, ErrEmptyOutline
	}

	article := *outline
	article.Sections = make([]core.Section, len(outline.Sections))
	copy(article.Sections, outline.Sections)
	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	for i := range article.Sections {
		section := &article.Sections[i]
		if section.ID == "" {
			section.ID = fmt.Sprintf("section-%d", i+1)
		}

		a.log.Infof("Escribiendo sección %d/%d: %s", i+1, len(article.Sections), section.Title)
		raw, err := a.writer.SectionContent(ctx, article.Title, *section, article.Language)
		if err != nil {
			return nil, fmt.Errorf("failed to write section %d: %w", i+1, err)
		}
		section.Content = readability.Transform(sanitize.SectionHTML(raw))
	}

	if website != "" {
		siteLinks := links.SiteLinks(website)
		article.Sections, _ = links.Insert(article.Sections, siteLinks)

		count := CountAnchors(article.Sections)
		if count < links.RequiredLinks {
			a.log.Errorf("Solo se insertaron %d de %d enlaces internos para %s", count, links.RequiredLinks, website)
			return nil, fmt.Errorf("%w: inserted %d for %s (content too sparse)", ErrInsufficientLinks, count, website)
		}
		a.log.Infof("Enlaces internos insertados: %d (sitio %s)", count, website)
	} else {
		a.log.Infof("Sin sitio web detectado: se omite la inserción de enlaces")
	}

	primaryKeyword := article.Title
	if len(article.PrimaryKeywords) > 0 {
		primaryKeyword = article.PrimaryKeywords[0]
	}
	a.log.Infof("Generando imagen de portada para %q", article.Title)
	img, err := a.images.GenerateFeatured(ctx, primaryKeyword, article.Title)
	if err != nil {
		return nil, fmt.Errorf("featured image is mandatory: %w", err)
	}
	article.FeaturedImage = img

	article.DateAssembled = time.Now().UTC()
	return &article, nil
}

// CountAnchors counts href-carrying anchors across all section fragments.
func CountAnchors(sections []core.Section) int {
	total := 0
	for _, s := range sections {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.Content))
		if err != nil {
			continue
		}
		total += doc.Find("a[href]").Length()
	}
	return total
}
