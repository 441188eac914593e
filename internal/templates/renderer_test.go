package templates

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func siteContext() map[string]any {
	return map[string]any{
		"language":    "en",
		"title":       "Garden",
		"description": "Notes",
		"feeds":       true,
		"nav": []map[string]string{
			{"label": "Home", "url": "/"},
		},
	}
}

func TestDefaultArticleTemplate(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.GlobalContext(map[string]any{"site": siteContext()}); err != nil {
		t.Fatalf("GlobalContext: %v", err)
	}

	out, err := r.RenderTemplate(ArticleTemplate, map[string]any{
		"title":       "Fish & Chips",
		"date":        "2024-01-02",
		"description": "Lunch",
		"content":     Safe("<p>crispy</p>"),
		"scripts":     Safe(`<script src="/assets/x.js"></script>`),
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	for _, want := range []string{
		"<title>Fish &amp; Chips</title>",
		`<time datetime="2024-01-02">2024-01-02</time>`,
		"<p>crispy</p>",
		`<script src="/assets/x.js"></script>`,
		`href="/feed.xml"`,
		`<a href="/">Home</a>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDefaultIndexTemplate(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.RenderTemplate(IndexTemplate, map[string]any{
		"site":       siteContext(),
		"lock_label": "Protected",
		"tags":       []map[string]string{{"key": "essays", "label": "Essays"}},
		"years":      []string{"2024"},
		"articles": []map[string]any{
			{"title": "Open", "url": "/open.html", "date": "2024-01-02", "year": "2024", "tag_key": "essays", "description": "<b>teaser</b>"},
			{"title": "Closed", "url": "/closed.html", "protected": true},
		},
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if !strings.Contains(out, `data-filter-value="essays"`) || !strings.Contains(out, `data-filter-value="2024"`) {
		t.Fatalf("expected tag and year filters:\n%s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;teaser&lt;/b&gt;") {
		t.Fatalf("expected escaped description:\n%s", out)
	}
	if strings.Count(out, `class="lock"`) != 1 {
		t.Fatalf("expected one lock label:\n%s", out)
	}
	if strings.Index(out, "/open.html") > strings.Index(out, "/closed.html") {
		t.Fatalf("expected articles in the given order")
	}
}

func TestOverrideDirectoryShadowsDefaults(t *testing.T) {
	dir := t.TempDir()
	legacy := "<h1>{{TITLE}}</h1>{{DATE_HTML}}<main>{{CONTENT}}</main>"
	if err := os.WriteFile(filepath.Join(dir, ArticleTemplate), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	r, err := New(Options{Dir: dir, Required: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := r.RenderTemplate(ArticleTemplate, map[string]any{
		"TITLE":     "A<B",
		"DATE_HTML": Safe(`<time datetime="2024-01-02">2024-01-02</time>`),
		"CONTENT":   Safe("<p>x</p>"),
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	want := `<h1>A&lt;B</h1><time datetime="2024-01-02">2024-01-02</time><main><p>x</p></main>`
	if out != want {
		t.Fatalf("unexpected override output\nwant %s\ngot  %s", want, out)
	}

	// index.html is not overridden and still comes from the defaults.
	if _, err := r.RenderTemplate(IndexTemplate, map[string]any{"site": siteContext()}); err != nil {
		t.Fatalf("expected default index to remain available: %v", err)
	}
}

func TestMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := New(Options{Dir: missing}); err != nil {
		t.Fatalf("optional directory should fall back to defaults: %v", err)
	}
	if _, err := New(Options{Dir: missing, Required: true}); !errors.Is(err, ErrTemplateDirMissing) {
		t.Fatalf("expected ErrTemplateDirMissing, got %v", err)
	}
}

func TestRenderStringAndWriter(t *testing.T) {
	r := NewFromFS(nil, fstest.MapFS{
		"partial.html": {Data: []byte("[{{ name }}]")},
	})

	out, err := r.RenderString(`{% include "partial.html" %}!`, map[string]any{"name": "garden"})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "[garden]!" {
		t.Fatalf("unexpected inline output %q", out)
	}

	var buf bytes.Buffer
	if _, err := r.RenderTemplate("partial.html", map[string]any{"name": "w"}, &buf); err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if buf.String() != "[w]" {
		t.Fatalf("unexpected streamed output %q", buf.String())
	}

	if _, err := r.RenderTemplate("missing.html", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
	if _, err := r.RenderString("{{ x }}", 42); err == nil {
		t.Fatalf("expected error for unsupported data type")
	}
}
