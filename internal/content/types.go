package content

import (
	"path"
	"strings"
	"time"
)

// Format identifies how an item's body is written.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Item is one discovered source file, created once per scan and consumed once
// by rendering.
type Item struct {
	// Path is the slash-separated source path relative to the content root.
	Path   string
	Format Format
	Title  string
	// Date is YYYY-MM-DD or empty.
	Date string
	// Description holds only the author-supplied description.
	Description string
	// Tag is the top-level directory of Path, empty for root files.
	Tag      string
	Body     string
	Password string
	Draft    bool
	// Source keeps the original bytes of HTML items for verbatim copies.
	Source  []byte
	ModTime time.Time
}

// Protected reports whether the item carries a non-blank password.
func (i Item) Protected() bool {
	return strings.TrimSpace(i.Password) != ""
}

// OutputPath returns the slash-separated artifact path for the item.
// Markdown sources become .html; HTML sources keep their path.
func (i Item) OutputPath() string {
	if i.Format == FormatMarkdown {
		return strings.TrimSuffix(i.Path, path.Ext(i.Path)) + ".html"
	}
	return i.Path
}

// URL returns the site-absolute URL of the rendered item.
func (i Item) URL() string {
	return "/" + i.OutputPath()
}

// Year returns the first four characters of Date, or "".
func (i Item) Year() string {
	if len(i.Date) < 4 {
		return ""
	}
	return i.Date[:4]
}

// Summary is the index entry derived from an item.
type Summary struct {
	Title       string
	URL         string
	Date        string
	Description string
	Tag         string
	Year        string
	Protected   bool
}

// NewSummary derives the index entry for item. Protected items only ever
// carry their explicit description; excerpt is ignored for them.
func NewSummary(item Item, excerpt string) Summary {
	description := item.Description
	protected := item.Protected()
	if description == "" && !protected {
		description = excerpt
	}
	return Summary{
		Title:       item.Title,
		URL:         item.URL(),
		Date:        item.Date,
		Description: description,
		Tag:         item.Tag,
		Year:        item.Year(),
		Protected:   protected,
	}
}
