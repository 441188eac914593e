package generator

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"

	storageadapter "github.com/goliatone/go-garden/internal/adapters/storage"
	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/templates"
)

var fixedNow = time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

func testConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "Garden",
			Description: "Notes",
			Language:    "en",
			Nav:         []NavLink{{Label: "Home", URL: "/"}, {Label: "About", URL: "/about.html"}},
		},
		OutputDir:     "dist",
		CleanBuild:    true,
		GenerateFeeds: true,
		ExcludeDirs:   []string{"_templates", "_content"},
		ExcludeFiles:  []string{"readme.md"},
		AboutPage:     "_content/about.md",
	}
}

func testCipher() *protect.Cipher {
	return protect.NewCipher(protect.WithIterations(protect.MinIterations))
}

func newTestPipeline(t *testing.T, cfg Config, source fstest.MapFS, store *storageadapter.Memory) *Pipeline {
	t.Helper()
	assembler, err := protect.NewAssembler(testCipher(), protect.AssemblerConfig{
		CryptoJSURL: "https://cdn.example/crypto-js.min.js",
		MarkedURL:   "https://cdn.example/marked.min.js",
	}, nil)
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	renderer, err := templates.New(templates.Options{})
	if err != nil {
		t.Fatalf("templates.New: %v", err)
	}
	pipeline, err := NewPipeline(cfg, Dependencies{
		Source:    source,
		Storage:   store,
		Renderer:  renderer,
		Assembler: assembler,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	pipeline.now = func() time.Time { return fixedNow }
	pipeline.newID = func() string { return "b-1234" }
	return pipeline
}

func runPipeline(t *testing.T, p *Pipeline) *BuildResult {
	t.Helper()
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func mustFile(t *testing.T, store *storageadapter.Memory, rel string) string {
	t.Helper()
	data, ok := store.File(rel)
	if !ok {
		t.Fatalf("expected artifact %s, have %v", rel, store.Paths())
	}
	return string(data)
}

func file(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body), ModTime: fixedNow}
}

// gateMarkup returns the selectors of password gate elements present in page.
func gateMarkup(t *testing.T, page string) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	var found []string
	for _, selector := range []string{
		"[data-garden-protected]",
		"script.garden-ciphertext",
		"form.garden-gate",
		"input[type=password]",
		"script[src*='garden-unlock']",
	} {
		if doc.Find(selector).Length() > 0 {
			found = append(found, selector)
		}
	}
	return found
}
