package protect

import (
	"errors"
	"strings"
	"testing"
)

func assemblePage(t *testing.T, src Source) []byte {
	t.Helper()
	fragment, err := newTestAssembler(t).Assemble(src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return []byte("<!DOCTYPE html><html><head><title>" + src.Title + "</title></head><body><main>" +
		fragment.Markup + "</main>" + fragment.Scripts + "</body></html>")
}

func TestGateUnlocksWithCorrectPassword(t *testing.T) {
	page := assemblePage(t, Source{Title: "Note", Format: FormatMarkdown, Body: "Hello **world**", Password: "secret123"})

	gate, err := ParseGate(page)
	if err != nil {
		t.Fatalf("ParseGate: %v", err)
	}
	if gate.State() != Locked {
		t.Fatalf("expected initial Locked state, got %s", gate.State())
	}
	if view := gate.View(); !view.FormVisible || view.ContentVisible || view.ErrorVisible {
		t.Fatalf("unexpected initial view %+v", view)
	}

	if err := gate.Submit("secret123"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gate.State() != Unlocked {
		t.Fatalf("expected Unlocked, got %s", gate.State())
	}
	view := gate.View()
	if view.FormVisible || !view.ContentVisible {
		t.Fatalf("unexpected unlocked view %+v", view)
	}
	if !strings.Contains(view.Content, "<strong>world</strong>") {
		t.Fatalf("expected rendered markdown, got %q", view.Content)
	}
}

func TestGateWrongPasswordStaysLocked(t *testing.T) {
	page := assemblePage(t, Source{Title: "Note", Format: FormatMarkdown, Body: "Hello **world**", Password: "secret123"})
	gate, err := ParseGate(page)
	if err != nil {
		t.Fatalf("ParseGate: %v", err)
	}

	if err := gate.Submit("wrong"); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
	if gate.State() != Locked {
		t.Fatalf("expected Locked after failure, got %s", gate.State())
	}
	view := gate.View()
	if !view.FormVisible || !view.ErrorVisible || view.ContentVisible || view.Content != "" {
		t.Fatalf("unexpected failure view %+v", view)
	}

	// A later correct attempt still succeeds and clears the error.
	if err := gate.Submit("secret123"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if view := gate.View(); view.ErrorVisible || !view.ContentVisible {
		t.Fatalf("expected clean unlocked view, got %+v", view)
	}
}

func TestGateInsertsHTMLAsIs(t *testing.T) {
	body := "\n<h2>Kept</h2>\n<p>exactly <b>as written</b></p>\n"
	page := assemblePage(t, Source{Title: "Doc", Format: FormatHTML, Body: body, Password: "pw"})
	gate, err := ParseGate(page)
	if err != nil {
		t.Fatalf("ParseGate: %v", err)
	}
	if gate.Format() != FormatHTML {
		t.Fatalf("unexpected format %q", gate.Format())
	}
	if err := gate.Submit("pw"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gate.View().Content != body {
		t.Fatalf("expected byte-identical body, got %q", gate.View().Content)
	}
}

func TestParseGateRejectsPlainPages(t *testing.T) {
	if _, err := ParseGate([]byte("<html><body><p>open</p></body></html>")); !errors.Is(err, ErrGateMarkup) {
		t.Fatalf("expected ErrGateMarkup, got %v", err)
	}
	broken := `<div data-garden-protected data-format="markdown"><form class="garden-gate"><input type="password"></form><div class="garden-content" hidden></div></div>`
	if _, err := ParseGate([]byte(broken)); !errors.Is(err, ErrGateMarkup) {
		t.Fatalf("expected ErrGateMarkup for missing ciphertext, got %v", err)
	}
}
