package protect

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-garden/internal/markdown"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// State is a step of the unlock state machine run by the browser routine.
type State int

const (
	Locked State = iota
	Unlocking
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// View is what a reader sees at a given moment.
type View struct {
	FormVisible    bool
	ErrorVisible   bool
	ContentVisible bool
	// Content is the revealed HTML; empty unless the gate is unlocked.
	Content string
}

// Gate reproduces the browser unlock routine against emitted markup. It never
// makes network calls and never exposes ciphertext or partial plaintext.
type Gate struct {
	cipher     *Cipher
	parser     interfaces.MarkdownParser
	ciphertext string
	format     string
	state      State
	failed     bool
	content    string
}

// GateOption customises a Gate.
type GateOption func(*Gate)

// WithMarkdownParser replaces the renderer used for Markdown payloads.
func WithMarkdownParser(parser interfaces.MarkdownParser) GateOption {
	return func(g *Gate) {
		if parser != nil {
			g.parser = parser
		}
	}
}

// ParseGate locates the first protected block in page and returns a locked
// gate for it.
func ParseGate(page []byte, opts ...GateOption) (*Gate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateMarkup, err)
	}
	root := doc.Find("[data-garden-protected]").First()
	if root.Length() == 0 {
		return nil, ErrGateMarkup
	}
	if root.Find("form.garden-gate input[type=password]").Length() == 0 {
		return nil, fmt.Errorf("%w: password input missing", ErrGateMarkup)
	}
	if root.Find(".garden-content").Length() == 0 {
		return nil, fmt.Errorf("%w: content container missing", ErrGateMarkup)
	}
	ciphertext := strings.TrimSpace(root.Find("script.garden-ciphertext").First().Text())
	if ciphertext == "" {
		return nil, fmt.Errorf("%w: ciphertext missing", ErrGateMarkup)
	}
	format, _ := root.Attr("data-format")

	g := &Gate{
		cipher:     NewCipher(),
		parser:     markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		ciphertext: ciphertext,
		format:     format,
		state:      Locked,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// State returns the current step.
func (g *Gate) State() State { return g.state }

// Format returns the data-format of the protected block.
func (g *Gate) Format() string { return g.format }

// Submit runs one unlock attempt. A wrong password returns the gate to
// Locked with the error flag set and yields ErrDecrypt. Submitting to an
// unlocked gate is a no-op.
func (g *Gate) Submit(password string) error {
	if g.state != Locked {
		return nil
	}
	g.state = Unlocking

	plaintext, err := g.cipher.Decrypt(g.ciphertext, password)
	if err == nil && plaintext == "" {
		err = ErrDecrypt
	}
	var html string
	if err == nil {
		html, err = g.render(plaintext)
	}
	if err != nil {
		g.state = Locked
		g.failed = true
		g.content = ""
		return err
	}

	g.content = html
	g.failed = false
	g.state = Unlocked
	return nil
}

func (g *Gate) render(plaintext string) (string, error) {
	if g.format != FormatMarkdown {
		return plaintext, nil
	}
	out, err := g.parser.Parse([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// View reports what is visible in the current state.
func (g *Gate) View() View {
	if g.state == Unlocked {
		return View{ContentVisible: true, Content: g.content}
	}
	return View{FormVisible: true, ErrorVisible: g.failed}
}
