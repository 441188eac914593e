package interfaces

import "time"

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
// Parsers must be reusable across documents without extra locking.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour, keeping option names
// readable for configuration unmarshalling.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	SafeMode   bool
}

// FrontMatter models metadata extracted from Markdown sources. Only title,
// date, description and password drive the build; the rest is tolerated so
// existing content trees keep parsing.
type FrontMatter struct {
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Password    string         `yaml:"password" json:"-"`
	Tags        []string       `yaml:"tags" json:"tags"`
	Draft       bool           `yaml:"draft" json:"draft"`
	Date        time.Time      `yaml:"-" json:"date"`
	RawDate     string         `yaml:"-" json:"raw_date"`
	Custom      map[string]any `yaml:",inline" json:"custom"`
}
