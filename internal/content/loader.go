package content

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-garden/internal/markdown"
)

// ErrUnsupportedFormat is returned for extensions other than .md and .html.
var ErrUnsupportedFormat = errors.New("content: unsupported source format")

// FormatFor maps a file extension onto a Format.
func FormatFor(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".md":
		return FormatMarkdown, true
	case ".html":
		return FormatHTML, true
	default:
		return "", false
	}
}

// Load builds an Item from the raw bytes of the file at rel.
func Load(rel string, data []byte, modTime time.Time) (Item, error) {
	format, ok := FormatFor(rel)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, rel)
	}
	if format == FormatMarkdown {
		return LoadMarkdown(rel, data, modTime)
	}
	return LoadHTML(rel, data, modTime)
}

// LoadMarkdown parses front matter and keeps the Markdown body untouched.
func LoadMarkdown(rel string, data []byte, modTime time.Time) (Item, error) {
	fm, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return Item{}, fmt.Errorf("content: %s: %w", rel, err)
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = baseName(rel)
	}
	date := markdown.FormatDate(fm.Date)
	if date == "" {
		date = markdown.DateFromFilename(rel)
	}

	return Item{
		Path:        rel,
		Format:      FormatMarkdown,
		Title:       title,
		Date:        date,
		Description: strings.TrimSpace(fm.Description),
		Tag:         topLevelDir(rel),
		Body:        string(body),
		Password:    fm.Password,
		Draft:       fm.Draft,
		ModTime:     modTime,
	}, nil
}

// LoadHTML reads page metadata from the document head and keeps the body
// inner HTML as written.
func LoadHTML(rel string, data []byte, modTime time.Time) (Item, error) {
	meta, err := ReadHTMLMeta(data)
	if err != nil {
		return Item{}, fmt.Errorf("content: %s: %w", rel, err)
	}

	title := meta.Title
	if title == "" {
		title = baseName(rel)
	}
	date := ""
	if parsed, ok := markdown.ParseDate(meta.Date); ok {
		date = markdown.FormatDate(parsed)
	}
	if date == "" {
		date = markdown.DateFromFilename(rel)
	}

	return Item{
		Path:        rel,
		Format:      FormatHTML,
		Title:       title,
		Date:        date,
		Description: meta.Description,
		Tag:         topLevelDir(rel),
		Body:        BodyInnerHTML(data),
		Password:    meta.Password,
		Source:      append([]byte(nil), data...),
		ModTime:     modTime,
	}, nil
}

func baseName(rel string) string {
	name := path.Base(rel)
	return strings.TrimSuffix(name, path.Ext(name))
}

func topLevelDir(rel string) string {
	if idx := strings.Index(rel, "/"); idx > 0 {
		return rel[:idx]
	}
	return ""
}
