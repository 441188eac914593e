package content_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-garden/internal/content"
)

func TestLoadHTMLReadsMetadata(t *testing.T) {
	src := []byte(`<!DOCTYPE html>
<html>
<head>
  <title>Night Train</title>
  <meta name="Description" content="Notes from a sleeper car">
  <meta name="password" content="hunter2">
  <meta name="date" content="2021-07-08">
</head>
<BODY class="article">
  <h1>Night Train</h1>
  <p>The carriage rocked.</p>
</BODY>
</html>`)

	item, err := content.LoadHTML("travel/night-train.html", src, time.Time{})
	if err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	if item.Title != "Night Train" || item.Date != "2021-07-08" || item.Tag != "travel" {
		t.Fatalf("unexpected metadata: %+v", item)
	}
	if item.Description != "Notes from a sleeper car" || item.Password != "hunter2" {
		t.Fatalf("unexpected description/password: %+v", item)
	}
	want := "\n  <h1>Night Train</h1>\n  <p>The carriage rocked.</p>\n"
	if item.Body != want {
		t.Fatalf("expected body inner HTML verbatim\nwant %q\ngot  %q", want, item.Body)
	}
}

func TestLoadHTMLFallbacks(t *testing.T) {
	item, err := content.LoadHTML("2020-02-03-fragment.html", []byte("<p>Only a fragment</p>"), time.Time{})
	if err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	if item.Title != "2020-02-03-fragment" || item.Date != "2020-02-03" {
		t.Fatalf("unexpected fallbacks: %+v", item)
	}
	if item.Body != "<p>Only a fragment</p>" {
		t.Fatalf("expected whole document as body, got %q", item.Body)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := content.Load("notes.txt", []byte("x"), time.Time{}); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestExcerpt(t *testing.T) {
	html := "<h1>T</h1><p>Short <em>and</em> sweet</p><p>second</p>"
	if got := content.Excerpt(html, 150); got != "Short and sweet" {
		t.Fatalf("unexpected excerpt %q", got)
	}

	long := "<p>" + strings.Repeat("花", 160) + "</p>"
	got := content.Excerpt(long, 150)
	if got != strings.Repeat("花", 150)+"..." {
		t.Fatalf("expected rune-based truncation, got %d runes", len([]rune(got)))
	}

	if content.Excerpt("<div>no paragraphs</div>", 150) != "" {
		t.Fatalf("expected empty excerpt without paragraphs")
	}
}

func TestNewSummaryKeepsProtectedDescriptionsExplicit(t *testing.T) {
	open := content.Item{Path: "a.md", Format: content.FormatMarkdown, Title: "A", Date: "2024-05-06"}
	summary := content.NewSummary(open, "from body")
	if summary.Description != "from body" || summary.Year != "2024" || summary.URL != "/a.html" {
		t.Fatalf("unexpected open summary: %+v", summary)
	}

	locked := content.Item{Path: "b.md", Format: content.FormatMarkdown, Title: "B", Password: "pw"}
	summary = content.NewSummary(locked, "secret body text")
	if summary.Description != "" || !summary.Protected {
		t.Fatalf("protected summary must not use body text: %+v", summary)
	}

	locked.Description = "Public teaser"
	if got := content.NewSummary(locked, "secret").Description; got != "Public teaser" {
		t.Fatalf("expected explicit description, got %q", got)
	}
}

func TestListingSortsNewestFirstUndatedLast(t *testing.T) {
	var listing content.Listing
	listing.Add(content.Summary{Title: "undated-1"})
	listing.Add(content.Summary{Title: "old", Date: "2020-01-01", Year: "2020", Tag: "essays"})
	listing.Add(content.Summary{Title: "new", Date: "2024-03-01", Year: "2024", Tag: "notes"})
	listing.Add(content.Summary{Title: "undated-2", Tag: "notes"})
	listing.Add(content.Summary{Title: "mid", Date: "2022-06-15", Year: "2022"})

	var titles []string
	for _, s := range listing.Sorted() {
		titles = append(titles, s.Title)
	}
	want := []string{"new", "mid", "old", "undated-1", "undated-2"}
	if strings.Join(titles, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected order %v", titles)
	}

	if got := strings.Join(listing.Tags(), ","); got != "essays,notes" {
		t.Fatalf("unexpected tags %q", got)
	}
	if got := strings.Join(listing.Years(), ","); got != "2024,2022,2020" {
		t.Fatalf("unexpected years %q", got)
	}
	if listing.Len() != 5 {
		t.Fatalf("unexpected length %d", listing.Len())
	}
}
