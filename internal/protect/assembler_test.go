package protect

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler(testCipher(), AssemblerConfig{
		CryptoJSURL: "https://cdn.example/crypto-js.min.js",
		MarkedURL:   "https://cdn.example/marked.min.js",
	}, nil)
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	return a
}

func TestAssembleHidesBodyAndPassword(t *testing.T) {
	a := newTestAssembler(t)
	src := Source{
		Title:    "Private letter",
		Date:     "2024-02-01",
		Format:   FormatMarkdown,
		Body:     "Hello **world**",
		Password: "secret123",
	}

	fragment, err := a.Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	out := fragment.String()
	if strings.Contains(out, "secret123") {
		t.Fatalf("password leaked into fragment")
	}
	if strings.Contains(out, "Hello") || strings.Contains(out, "world") {
		t.Fatalf("plaintext leaked into fragment")
	}
	if fragment.Payload.Meta.Title != "Private letter" || fragment.Payload.Meta.Date != "2024-02-01" {
		t.Fatalf("unexpected meta %+v", fragment.Payload.Meta)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	if got := strings.TrimSpace(doc.Find("script.garden-ciphertext").Text()); got != fragment.Payload.Ciphertext {
		t.Fatalf("ciphertext not embedded verbatim")
	}
	if typ, _ := doc.Find("script.garden-ciphertext").Attr("type"); typ != "text/plain" {
		t.Fatalf("ciphertext must sit in a non-executed script, got type %q", typ)
	}
	if doc.Find("form.garden-gate input[type=password]").Length() != 1 {
		t.Fatalf("expected a password input")
	}
	if doc.Find("form.garden-gate button[type=submit]").Length() != 1 {
		t.Fatalf("expected an unlock button")
	}
	if _, hidden := doc.Find(".garden-content").Attr("hidden"); !hidden {
		t.Fatalf("content container must start hidden")
	}
	if format, _ := doc.Find("[data-garden-protected]").Attr("data-format"); format != FormatMarkdown {
		t.Fatalf("unexpected format %q", format)
	}

	var sources []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		sources = append(sources, src)
	})
	want := "https://cdn.example/crypto-js.min.js,https://cdn.example/marked.min.js,/assets/garden-unlock.v1.js"
	if strings.Join(sources, ",") != want {
		t.Fatalf("unexpected scripts %v", sources)
	}
}

func TestAssembleHTMLSkipsMarkdownRenderer(t *testing.T) {
	a := newTestAssembler(t)
	fragment, err := a.Assemble(Source{Format: FormatHTML, Body: "<p>hi</p>", Password: "pw-html"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(fragment.Scripts, "marked") {
		t.Fatalf("html payloads must not load marked: %s", fragment.Scripts)
	}
	if !strings.Contains(fragment.Markup, `data-format="html"`) {
		t.Fatalf("expected html format marker")
	}
}

func TestAssembleRequiresPassword(t *testing.T) {
	a := newTestAssembler(t)
	if _, err := a.Assemble(Source{Body: "x", Password: "  "}); !errors.Is(err, ErrNotProtected) {
		t.Fatalf("expected ErrNotProtected, got %v", err)
	}
}

func TestAssembleRejectsEmptyBody(t *testing.T) {
	a := newTestAssembler(t)
	if _, err := a.Assemble(Source{Body: "", Password: "pw"}); !errors.Is(err, ErrEncryptionInput) {
		t.Fatalf("expected ErrEncryptionInput, got %v", err)
	}
}

func TestAssembleRejectsPasswordInMetadata(t *testing.T) {
	a := newTestAssembler(t)
	_, err := a.Assemble(Source{Title: "Hint: tulip42", Body: "x", Password: "tulip42"})
	if !errors.Is(err, ErrPasswordLeak) {
		t.Fatalf("expected ErrPasswordLeak, got %v", err)
	}
}

func TestAssembleRejectsPasswordInTagOrURL(t *testing.T) {
	a := newTestAssembler(t)
	cases := map[string]Source{
		"tag": {Title: "Diary", Tag: "tulip42", URL: "/tulip42/day.html", Body: "x", Password: "tulip42"},
		"url": {Title: "Diary", Tag: "notes", URL: "/notes/tulip42.html", Body: "x", Password: "tulip42"},
	}
	for name, src := range cases {
		if _, err := a.Assemble(src); !errors.Is(err, ErrPasswordLeak) {
			t.Fatalf("%s: expected ErrPasswordLeak, got %v", name, err)
		}
	}

	if _, err := a.Assemble(Source{Title: "Diary", Tag: "notes", URL: "/notes/day.html", Body: "x", Password: "html"}); err != nil {
		t.Fatalf("file extension must not count as a leak: %v", err)
	}
}

func TestAssembleToleratesPasswordMatchingStaticLabels(t *testing.T) {
	a := newTestAssembler(t)
	if _, err := a.Assemble(Source{Body: "x", Password: "Unlock"}); err != nil {
		t.Fatalf("static labels must not count as a leak: %v", err)
	}
}

func TestCheckLeak(t *testing.T) {
	if err := CheckLeak("<p>ct-hunter2</p>", "", "ct-hunter2", "hunter2"); err != nil {
		t.Fatalf("occurrence inside ciphertext must be ignored: %v", err)
	}
	if err := CheckLeak("<p>hunter2</p>", "<p></p>", "ct", "hunter2"); !errors.Is(err, ErrPasswordLeak) {
		t.Fatalf("expected ErrPasswordLeak, got %v", err)
	}
}

func TestClientAssetIsVersionedRoutine(t *testing.T) {
	asset := string(ClientAsset())
	for _, needle := range []string{"garden-unlock v1", "CryptoJS.PBKDF2", "HmacSHA256", "data-garden-protected", "marked.parse"} {
		if !strings.Contains(asset, needle) {
			t.Fatalf("client asset missing %q", needle)
		}
	}
	if strings.Contains(asset, "fetch(") || strings.Contains(asset, "XMLHttpRequest") {
		t.Fatalf("client routine must not perform network calls")
	}
}
