package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-garden/internal/content"
	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/internal/markdown"
	"github.com/goliatone/go-garden/internal/metrics"
	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/templates"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

var (
	// ErrOutputNotWritable reports that the storage provider rejected the
	// initial write; no item is processed in that case.
	ErrOutputNotWritable = errors.New("generator: output is not writable")
	errRendererRequired  = errors.New("generator: template renderer is required")
	errSourceRequired    = errors.New("generator: content source is required")
)

// Metrics receives build counters. *metrics.Recorder satisfies it.
type Metrics interface {
	ObserveItem(format, outcome string)
	ObserveProtected()
	ObserveArtifact()
	ObserveBuild(duration time.Duration, finishedAt time.Time)
}

// Dependencies lists the collaborators of a pipeline.
type Dependencies struct {
	// Source is the content root.
	Source   fs.FS
	Storage  interfaces.StorageProvider
	Renderer interfaces.TemplateRenderer
	// Markdown defaults to a goldmark parser with GFM enabled.
	Markdown interfaces.MarkdownParser
	// Assembler defaults to one built with the default cipher.
	Assembler *protect.Assembler
	Logger    interfaces.Logger
	Metrics   Metrics
}

// BuildResult reports what one run produced. The listing is owned by the
// result; nothing is kept between runs.
type BuildResult struct {
	BuildID     string
	StartedAt   time.Time
	Listing     *content.Listing
	Discovered  int
	Rendered    int
	Copied      int
	Protected   int
	Failed      int
	Skipped     int
	Artifacts   int
	Duration    time.Duration
	Diagnostics []ItemDiagnostic
	Errors      []error
}

// Err joins every collected error, or returns nil.
func (r *BuildResult) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.Errors...)
}

// ItemDiagnostic records the outcome and timing of one item.
type ItemDiagnostic struct {
	Path      string
	Output    string
	Format    content.Format
	Protected bool
	Outcome   string
	Duration  time.Duration
	Err       error
}

// ItemError wraps a failure tied to one source file.
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("generator: %s: %v", e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Pipeline scans a content tree and publishes it through a storage
// provider. Items are processed one at a time.
type Pipeline struct {
	cfg           Config
	deps          Dependencies
	logger        interfaces.Logger
	contentLogger interfaces.Logger
	metrics       Metrics
	now           func() time.Time
	newID         func() string
}

// NewPipeline wires a pipeline and publishes the site globals to the
// renderer.
func NewPipeline(cfg Config, deps Dependencies) (*Pipeline, error) {
	if deps.Renderer == nil {
		return nil, errRendererRequired
	}
	if deps.Source == nil {
		return nil, errSourceRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if deps.Markdown == nil {
		deps.Markdown = markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	}
	cfg = cfg.withDefaults()
	if deps.Assembler == nil {
		assembler, err := protect.NewAssembler(nil, protect.AssemblerConfig{AssetPath: cfg.AssetPath}, logger)
		if err != nil {
			return nil, err
		}
		deps.Assembler = assembler
	}
	var sink Metrics = noopMetrics{}
	if deps.Metrics != nil {
		sink = deps.Metrics
	}

	if err := deps.Renderer.GlobalContext(map[string]any{
		"site": siteContext(cfg.Site, cfg.GenerateFeeds),
	}); err != nil {
		return nil, fmt.Errorf("generator: site context: %w", err)
	}

	return &Pipeline{
		cfg:           cfg,
		deps:          deps,
		logger:        logger,
		contentLogger: logging.WithFields(logger, map[string]any{"stage": "scan"}),
		metrics:       sink,
		now:           time.Now,
		newID:         uuid.NewString,
	}, nil
}

// ShouldProtect reports whether item must be published behind a gate.
func ShouldProtect(item content.Item) bool {
	return strings.TrimSpace(item.Password) != ""
}

// RenderProtected encrypts the body of item with password and returns the
// gate fragment that replaces it. The item's own password field is ignored.
func (p *Pipeline) RenderProtected(item content.Item, password string) (protect.Fragment, error) {
	if strings.TrimSpace(password) == "" {
		return protect.Fragment{}, protect.ErrNotProtected
	}
	format := protect.FormatMarkdown
	if item.Format == content.FormatHTML {
		format = protect.FormatHTML
	}
	fragment, err := p.deps.Assembler.Assemble(protect.Source{
		Title:       item.Title,
		Date:        item.Date,
		Description: item.Description,
		Tag:         item.Tag,
		URL:         item.URL(),
		Format:      format,
		Body:        item.Body,
		Password:    password,
	})
	if err != nil {
		return protect.Fragment{}, err
	}
	return *fragment, nil
}

// Run executes one build. Per-item failures are collected in the result and
// never stop the run; the returned error is reserved for failures that do:
// an unwritable output, an unreadable content root or cancellation.
func (p *Pipeline) Run(ctx context.Context) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := p.now()
	result := &BuildResult{
		BuildID:   p.newID(),
		StartedAt: start,
		Listing:   &content.Listing{},
	}
	logger := logging.WithBuildID(p.logger, result.BuildID)
	logger.Info("build.started", "clean", p.cfg.CleanBuild)

	raw := newArtifactWriter(p.deps.Storage)
	if err := p.prepareOutput(ctx, raw); err != nil {
		logger.Error("build.output.unwritable", "error", err)
		return result, err
	}
	writer := &countingWriter{next: raw, onWrite: func() {
		result.Artifacts++
		p.metrics.ObserveArtifact()
	}}

	scanner := content.NewScanner(p.deps.Source, content.ScanOptions{
		ExcludeDirs:   p.cfg.ExcludeDirs,
		ExcludeFiles:  p.cfg.ExcludeFiles,
		IncludeDrafts: p.cfg.IncludeDrafts,
	}, logging.WithBuildID(p.contentLogger, result.BuildID))
	scan, err := scanner.Scan(ctx)
	if err != nil {
		return result, fmt.Errorf("generator: scan content: %w", err)
	}
	result.Discovered = len(scan.Items) + len(scan.Errors)
	result.Skipped = scan.Skipped
	for _, scanErr := range scan.Errors {
		result.Failed++
		result.Errors = append(result.Errors, scanErr)
		format := "unknown"
		var itemErr *content.ItemError
		if errors.As(scanErr, &itemErr) {
			if f, ok := content.FormatFor(itemErr.Path); ok {
				format = string(f)
			}
		}
		p.metrics.ObserveItem(format, metrics.OutcomeFailed)
		logger.Error("build.item.failed", "stage", "load", "error", scanErr)
	}

	var sitemapPages []sitemapPage
	for _, item := range scan.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome := p.buildItem(ctx, writer, item, logger)
		result.record(outcome)
		p.observe(outcome)
		if outcome.summary != nil {
			result.Listing.Add(*outcome.summary)
			sitemapPages = append(sitemapPages, sitemapPage{Route: outcome.summary.URL, Date: item.Date, ModTime: item.ModTime})
		}
	}

	if about, ok := p.buildAbout(ctx, writer, logger); ok {
		result.record(about)
		p.observe(about)
		if about.err == nil {
			sitemapPages = append(sitemapPages, sitemapPage{Route: "/" + about.diagnostic.Output})
		}
	}

	if result.Protected > 0 {
		if err := p.writeClientAsset(ctx, writer); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("generator: client asset: %w", err))
			logger.Error("build.asset.failed", "error", err)
		}
	}

	if err := p.writeIndex(ctx, writer, result.Listing); err != nil {
		result.Errors = append(result.Errors, err)
		logger.Error("build.index.failed", "error", err)
	}
	sitemapPages = append(sitemapPages, sitemapPage{Route: "/", ModTime: start})

	for _, err := range p.writeSiteFiles(ctx, writer, result.Listing, sitemapPages, start) {
		result.Errors = append(result.Errors, err)
		logger.Error("build.site_file.failed", "error", err)
	}

	finished := p.now()
	result.Duration = finished.Sub(start)
	p.metrics.ObserveBuild(result.Duration, finished)
	logger.Info("build.completed",
		"articles", result.Listing.Len(),
		"rendered", result.Rendered,
		"copied", result.Copied,
		"protected", result.Protected,
		"failed", result.Failed,
		"artifacts", result.Artifacts,
		"duration", result.Duration,
	)
	return result, nil
}

// prepareOutput clears the output on clean builds and proves it accepts
// writes before any item is rendered.
func (p *Pipeline) prepareOutput(ctx context.Context, writer artifactWriter) error {
	if p.cfg.CleanBuild {
		if err := writer.Remove(ctx, ""); err != nil {
			return fmt.Errorf("%w: clean: %v", ErrOutputNotWritable, err)
		}
	}
	if err := writer.EnsureDir(ctx, ""); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	if err := writer.WriteFile(ctx, writeFileRequest{Path: probePath, Category: categoryAsset, ContentType: "text/plain"}); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	if err := writer.Remove(ctx, probePath); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputNotWritable, err)
	}
	return nil
}

func (p *Pipeline) writeIndex(ctx context.Context, writer artifactWriter, listing *content.Listing) error {
	page, err := p.deps.Renderer.RenderTemplate(templates.IndexTemplate, indexContext(listing, p.cfg.LockLabel))
	if err != nil {
		return fmt.Errorf("generator: render index: %w", err)
	}
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        "index.html",
		Content:     []byte(page),
		Category:    categoryIndex,
		ContentType: detectContentType("index.html"),
	}); err != nil {
		return fmt.Errorf("generator: write index: %w", err)
	}
	return nil
}

// writeSiteFiles emits feeds, the sitemap and robots.txt. The sitemap and
// robots.txt need absolute URLs and are skipped without a base URL.
func (p *Pipeline) writeSiteFiles(ctx context.Context, writer artifactWriter, listing *content.Listing, pages []sitemapPage, generatedAt time.Time) []error {
	var errs []error
	write := func(path, body, contentType string, category writeCategory) {
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:        path,
			Content:     []byte(body),
			Category:    category,
			ContentType: contentType,
		}); err != nil {
			errs = append(errs, fmt.Errorf("generator: write %s: %w", path, err))
		}
	}

	if p.cfg.GenerateFeeds {
		doc := buildFeedDocument(p.cfg.Site, listing.Sorted(), p.cfg.FeedLimit, generatedAt)
		write(rssFeedPath, buildRSSFeed(doc, generatedAt), "application/rss+xml", categoryFeed)
		write(atomFeedPath, buildAtomFeed(doc, generatedAt), "application/atom+xml", categoryFeed)
	}

	if p.cfg.Site.BaseURL == "" {
		return errs
	}
	if p.cfg.GenerateSitemap {
		body, err := buildSitemap(p.cfg.Site.BaseURL, pages, generatedAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("generator: sitemap: %w", err))
		} else {
			write("sitemap.xml", body, "application/xml", categorySitemap)
		}
	}
	if p.cfg.GenerateRobots {
		write("robots.txt", buildRobots(p.cfg.Site.BaseURL, p.cfg.GenerateSitemap), "text/plain; charset=utf-8", categoryRobots)
	}
	return errs
}

func (r *BuildResult) record(outcome itemOutcome) {
	r.Diagnostics = append(r.Diagnostics, outcome.diagnostic)
	if outcome.err != nil {
		r.Failed++
		r.Errors = append(r.Errors, outcome.err)
		return
	}
	switch outcome.diagnostic.Outcome {
	case metrics.OutcomeCopied:
		r.Copied++
	default:
		r.Rendered++
	}
	if outcome.diagnostic.Protected {
		r.Protected++
	}
}

func (p *Pipeline) observe(outcome itemOutcome) {
	p.metrics.ObserveItem(string(outcome.diagnostic.Format), outcome.diagnostic.Outcome)
	if outcome.err == nil && outcome.diagnostic.Protected {
		p.metrics.ObserveProtected()
	}
}

type countingWriter struct {
	next    artifactWriter
	onWrite func()
}

func (w *countingWriter) EnsureDir(ctx context.Context, path string) error {
	return w.next.EnsureDir(ctx, path)
}

func (w *countingWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := w.next.WriteFile(ctx, req); err != nil {
		return err
	}
	w.onWrite()
	return nil
}

func (w *countingWriter) Remove(ctx context.Context, path string) error {
	return w.next.Remove(ctx, path)
}

type noopMetrics struct{}

func (noopMetrics) ObserveItem(string, string)            {}
func (noopMetrics) ObserveProtected()                     {}
func (noopMetrics) ObserveArtifact()                      {}
func (noopMetrics) ObserveBuild(time.Duration, time.Time) {}
