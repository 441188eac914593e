package protect

import (
	_ "embed"
	"fmt"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// ClientAssetName is the file name of the versioned browser routine.
const ClientAssetName = "garden-unlock.v1.js"

var (
	//go:embed assets/garden-unlock.v1.js
	clientAsset []byte
	//go:embed assets/gate.html
	gateTemplate string
	//go:embed assets/scripts.html
	scriptsTemplate string
)

// ClientAsset returns a copy of the browser routine shipped with every
// build that contains a protected page.
func ClientAsset() []byte {
	return append([]byte(nil), clientAsset...)
}

// Format values understood by the browser routine.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Source is the part of a content item the assembler needs.
type Source struct {
	Title       string
	Date        string
	Description string
	// Tag and URL are published by the index, feeds and sitemap.
	Tag string
	URL string
	// Format is FormatMarkdown or FormatHTML.
	Format   string
	Body     string
	Password string
}

// Meta is the page metadata that stays readable on a protected page.
type Meta struct {
	Title       string
	Date        string
	Description string
}

// Payload is what a protected page publishes: ciphertext plus readable
// metadata, never the plaintext body.
type Payload struct {
	Ciphertext string
	Meta       Meta
}

// Fragment is the assembled gate. Markup goes where the article body would
// be; Scripts goes at the end of the document body.
type Fragment struct {
	Payload Payload
	Format  string
	Markup  string
	Scripts string
}

// String returns the markup followed by the script tags.
func (f Fragment) String() string {
	return f.Markup + "\n" + f.Scripts
}

// AssemblerConfig carries the URLs and labels written into each gate.
type AssemblerConfig struct {
	CryptoJSURL  string
	MarkedURL    string
	AssetPath    string
	PromptLabel  string
	ButtonLabel  string
	ErrorMessage string
}

func (c AssemblerConfig) withDefaults() AssemblerConfig {
	if c.AssetPath == "" {
		c.AssetPath = "/assets/" + ClientAssetName
	}
	if c.PromptLabel == "" {
		c.PromptLabel = "This article is password protected"
	}
	if c.ButtonLabel == "" {
		c.ButtonLabel = "Unlock"
	}
	if c.ErrorMessage == "" {
		c.ErrorMessage = "Incorrect password"
	}
	return c
}

// Assembler turns a protected source into a gate fragment.
type Assembler struct {
	cipher  *Cipher
	cfg     AssemblerConfig
	gate    *pongo2.Template
	scripts *pongo2.Template
	logger  interfaces.Logger
}

// NewAssembler compiles the gate templates. A nil cipher uses NewCipher().
func NewAssembler(c *Cipher, cfg AssemblerConfig, logger interfaces.Logger) (*Assembler, error) {
	if c == nil {
		c = NewCipher()
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	gate, err := pongo2.FromString(gateTemplate)
	if err != nil {
		return nil, fmt.Errorf("protect: compile gate template: %w", err)
	}
	scripts, err := pongo2.FromString(scriptsTemplate)
	if err != nil {
		return nil, fmt.Errorf("protect: compile scripts template: %w", err)
	}
	return &Assembler{
		cipher:  c,
		cfg:     cfg.withDefaults(),
		gate:    gate,
		scripts: scripts,
		logger:  logger,
	}, nil
}

// Assemble encrypts src.Body and renders the gate around it. The result is
// checked so the password never appears outside the ciphertext.
func (a *Assembler) Assemble(src Source) (*Fragment, error) {
	password := src.Password
	if strings.TrimSpace(password) == "" {
		return nil, ErrNotProtected
	}
	format := src.Format
	if format != FormatHTML {
		format = FormatMarkdown
	}

	ciphertext, err := a.cipher.Encrypt(src.Body, password)
	if err != nil {
		return nil, err
	}

	meta := Meta{Title: src.Title, Date: src.Date, Description: src.Description}
	location := strings.TrimSuffix(src.URL, path.Ext(src.URL))
	for _, field := range []string{meta.Title, meta.Date, meta.Description, src.Tag, location} {
		if strings.Contains(field, password) {
			return nil, fmt.Errorf("%w: page metadata", ErrPasswordLeak)
		}
	}

	markup, scripts, err := a.render(format, ciphertext)
	if err != nil {
		return nil, err
	}
	baseMarkup, baseScripts, err := a.render(format, "")
	if err != nil {
		return nil, err
	}
	if err := CheckLeak(markup+scripts, baseMarkup+baseScripts, ciphertext, password); err != nil {
		return nil, fmt.Errorf("%w: gate markup", err)
	}

	a.logger.Debug("protect.assembled", "format", format, "ciphertext_bytes", len(ciphertext))
	return &Fragment{
		Payload: Payload{Ciphertext: ciphertext, Meta: meta},
		Format:  format,
		Markup:  markup,
		Scripts: scripts,
	}, nil
}

func (a *Assembler) render(format, ciphertext string) (string, string, error) {
	ctx := pongo2.Context{
		"format":     format,
		"ciphertext": ciphertext,
		"prompt":     a.cfg.PromptLabel,
		"button":     a.cfg.ButtonLabel,
		"error":      a.cfg.ErrorMessage,
		"cryptojs":   a.cfg.CryptoJSURL,
		"marked":     a.cfg.MarkedURL,
		"asset":      a.cfg.AssetPath,
	}
	markup, err := a.gate.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("protect: render gate: %w", err)
	}
	scripts, err := a.scripts.Execute(ctx)
	if err != nil {
		return "", "", fmt.Errorf("protect: render scripts: %w", err)
	}
	return markup, strings.TrimSpace(scripts), nil
}

// CheckLeak reports ErrPasswordLeak when password occurs in document outside
// the ciphertext more often than in baseline, the same document built
// without any item data.
func CheckLeak(document, baseline, ciphertext, password string) error {
	if password == "" {
		return nil
	}
	outside := document
	if ciphertext != "" {
		outside = strings.Replace(document, ciphertext, "", 1)
	}
	if strings.Count(outside, password) > strings.Count(baseline, password) {
		return ErrPasswordLeak
	}
	return nil
}
