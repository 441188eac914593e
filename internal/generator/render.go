package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-garden/internal/content"
	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/internal/metrics"
	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/templates"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

type itemOutcome struct {
	diagnostic ItemDiagnostic
	summary    *content.Summary
	err        error
}

// renderedItem is the output of one item before it is written.
type renderedItem struct {
	Page     []byte
	Excerpt  string
	Outcome  string
	Category writeCategory
}

// buildItem renders and writes one item. A protected item that fails at any
// step is never written.
func (p *Pipeline) buildItem(ctx context.Context, writer artifactWriter, item content.Item, logger interfaces.Logger) itemOutcome {
	started := p.now()
	log := logging.WithItemContext(logger, item.Path, string(item.Format))
	outcome := itemOutcome{
		diagnostic: ItemDiagnostic{
			Path:      item.Path,
			Output:    item.OutputPath(),
			Format:    item.Format,
			Protected: ShouldProtect(item),
		},
	}

	rendered, err := p.renderItem(item)
	if err == nil {
		err = writer.WriteFile(ctx, writeFileRequest{
			Path:        outcome.diagnostic.Output,
			Content:     rendered.Page,
			Category:    rendered.Category,
			ContentType: detectContentType(outcome.diagnostic.Output),
		})
	}
	outcome.diagnostic.Duration = p.now().Sub(started)

	if err != nil {
		outcome.err = &ItemError{Path: item.Path, Err: err}
		outcome.diagnostic.Err = outcome.err
		outcome.diagnostic.Outcome = metrics.OutcomeFailed
		log.Error("build.item.failed", "protected", outcome.diagnostic.Protected, "error", err)
		return outcome
	}

	outcome.diagnostic.Outcome = rendered.Outcome
	summary := content.NewSummary(item, rendered.Excerpt)
	outcome.summary = &summary

	event := "build.item." + rendered.Outcome
	if outcome.diagnostic.Protected {
		event = "build.item.protected"
	}
	log.Info(event, "output", outcome.diagnostic.Output, "duration", outcome.diagnostic.Duration)
	return outcome
}

func (p *Pipeline) renderItem(item content.Item) (renderedItem, error) {
	if ShouldProtect(item) {
		page, err := p.renderProtectedPage(item)
		if err != nil {
			return renderedItem{}, err
		}
		return renderedItem{Page: page, Outcome: metrics.OutcomeRendered, Category: categoryPage}, nil
	}

	switch item.Format {
	case content.FormatHTML:
		source := item.Source
		if source == nil {
			source = []byte(item.Body)
		}
		return renderedItem{
			Page:     source,
			Excerpt:  content.Excerpt(item.Body, p.cfg.DescriptionLength),
			Outcome:  metrics.OutcomeCopied,
			Category: categoryCopy,
		}, nil
	case content.FormatMarkdown:
		body, err := p.deps.Markdown.Parse([]byte(item.Body))
		if err != nil {
			return renderedItem{}, fmt.Errorf("render markdown: %w", err)
		}
		page, err := p.renderArticle(pageView{
			Title:       item.Title,
			Date:        item.Date,
			Description: item.Description,
			Tag:         item.Tag,
			Content:     string(body),
		})
		if err != nil {
			return renderedItem{}, err
		}
		return renderedItem{
			Page:     []byte(page),
			Excerpt:  content.Excerpt(string(body), p.cfg.DescriptionLength),
			Outcome:  metrics.OutcomeRendered,
			Category: categoryPage,
		}, nil
	default:
		return renderedItem{}, fmt.Errorf("%w: %s", content.ErrUnsupportedFormat, item.Format)
	}
}

func (p *Pipeline) renderArticle(view pageView) (string, error) {
	page, err := p.deps.Renderer.RenderTemplate(templates.ArticleTemplate, articleContext(view))
	if err != nil {
		return "", fmt.Errorf("render article: %w", err)
	}
	return page, nil
}

func (p *Pipeline) renderProtectedPage(item content.Item) ([]byte, error) {
	fragment, err := p.RenderProtected(item, item.Password)
	if err != nil {
		return nil, err
	}
	if item.Format == content.FormatHTML {
		return p.wrapProtectedHTML(item, fragment)
	}
	return p.wrapProtectedMarkdown(item, fragment)
}

// wrapProtectedMarkdown places the gate into the article template. The
// finished page is compared against the same template rendered without
// item data so only occurrences the item introduced count as leaks.
func (p *Pipeline) wrapProtectedMarkdown(item content.Item, fragment protect.Fragment) ([]byte, error) {
	page, err := p.renderArticle(pageView{
		Title:       item.Title,
		Date:        item.Date,
		Description: item.Description,
		Tag:         item.Tag,
		Protected:   true,
		Content:     fragment.Markup,
		Scripts:     fragment.Scripts,
	})
	if err != nil {
		return nil, err
	}
	baseline, err := p.renderArticle(pageView{
		Protected: true,
		Content:   withoutCiphertext(fragment.Markup, fragment.Payload.Ciphertext),
		Scripts:   fragment.Scripts,
	})
	if err != nil {
		return nil, err
	}
	if err := protect.CheckLeak(page, baseline, fragment.Payload.Ciphertext, item.Password); err != nil {
		return nil, fmt.Errorf("%w: rendered page", err)
	}
	return []byte(page), nil
}

// wrapProtectedHTML swaps the document body for the gate and drops the
// password meta tag. Everything outside the gate is checked, head included,
// and any occurrence of the password there fails the item.
func (p *Pipeline) wrapProtectedHTML(item content.Item, fragment protect.Fragment) ([]byte, error) {
	source := item.Source
	if source == nil {
		source = []byte(item.Body)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		if name, ok := sel.Attr("name"); ok && strings.EqualFold(strings.TrimSpace(name), "password") {
			sel.Remove()
		}
	})
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: document has no body", protect.ErrGateMarkup)
	}
	body.SetHtml("\n" + fragment.String() + "\n")

	page, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize html: %w", err)
	}
	baseline := withoutCiphertext(fragment.String(), fragment.Payload.Ciphertext)
	if err := protect.CheckLeak(page, baseline, fragment.Payload.Ciphertext, item.Password); err != nil {
		return nil, fmt.Errorf("%w: rendered page", err)
	}
	return []byte(page), nil
}

func withoutCiphertext(markup, ciphertext string) string {
	if ciphertext == "" {
		return markup
	}
	return strings.Replace(markup, ciphertext, "", 1)
}

// buildAbout renders the standalone about page. It reports false when no
// about page is configured or present.
func (p *Pipeline) buildAbout(ctx context.Context, writer artifactWriter, logger interfaces.Logger) (itemOutcome, bool) {
	rel := strings.TrimSpace(p.cfg.AboutPage)
	if rel == "" {
		return itemOutcome{}, false
	}
	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")

	format, _ := content.FormatFor(rel)
	data, err := fs.ReadFile(p.deps.Source, rel)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("build.about.missing", "path", rel)
		return itemOutcome{}, false
	}
	if err != nil {
		return itemOutcome{
			diagnostic: ItemDiagnostic{Path: rel, Format: format, Outcome: metrics.OutcomeFailed, Err: err},
			err:        &ItemError{Path: rel, Err: err},
		}, true
	}

	var modTime time.Time
	if info, statErr := fs.Stat(p.deps.Source, rel); statErr == nil {
		modTime = info.ModTime()
	}
	item, err := content.Load(rel, data, modTime)
	if err != nil {
		return itemOutcome{
			diagnostic: ItemDiagnostic{Path: rel, Format: format, Outcome: metrics.OutcomeFailed, Err: err},
			err:        &ItemError{Path: rel, Err: err},
		}, true
	}
	item.Path = "about" + path.Ext(rel)
	item.Title = p.cfg.AboutTitle
	item.Date = ""
	item.Tag = ""

	outcome := p.buildItem(ctx, writer, item, logger)
	outcome.diagnostic.Path = rel
	outcome.summary = nil
	return outcome, true
}
