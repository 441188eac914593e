package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-garden/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and the Markdown body from source. The
// body is returned exactly as written after the closing delimiter; sources
// without front matter are returned whole.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// ErrPasswordNotText reports a password value that cannot be read back
// exactly as the author wrote it.
var ErrPasswordNotText = errors.New("front matter password must be text; quote it")

// frontMatterEnvelope accepts loosely typed values: YAML authors write
// numeric passwords and TOML decodes dates natively.
type frontMatterEnvelope struct {
	Title       any            `yaml:"title" toml:"title" json:"title"`
	Description any            `yaml:"description" toml:"description" json:"description"`
	Password    rawScalar      `yaml:"password" toml:"password" json:"password"`
	Date        any            `yaml:"date" toml:"date" json:"date"`
	Tags        any            `yaml:"tags" toml:"tags" json:"tags"`
	Draft       bool           `yaml:"draft" toml:"draft" json:"draft"`
	Custom      map[string]any `yaml:",inline" toml:"-" json:"-"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	fm := interfaces.FrontMatter{
		Title:       scalarString(env.Title),
		Description: scalarString(env.Description),
		Password:    string(env.Password),
		Tags:        stringList(env.Tags),
		Draft:       env.Draft,
		Custom:      cloneMap(env.Custom),
	}

	switch v := env.Date.(type) {
	case nil:
	case time.Time:
		fm.Date = v
		fm.RawDate = v.Format(time.RFC3339)
	default:
		fm.RawDate = strings.TrimSpace(scalarString(v))
		if parsed, ok := ParseDate(fm.RawDate); ok {
			fm.Date = parsed
		}
	}
	return fm
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

// ParseDate parses the date formats authors commonly use in front matter and
// HTML metadata.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as YYYY-MM-DD in UTC, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// DateFromFilename returns the YYYY-MM-DD prefix of a file name, if any.
func DateFromFilename(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	match := datePrefix.FindStringSubmatch(name)
	if match == nil {
		return ""
	}
	if _, err := time.Parse("2006-01-02", match[1]); err != nil {
		return ""
	}
	return match[1]
}

// rawScalar keeps a scalar exactly as written. YAML resolves `0123` and
// `1.50` to numbers; decoding into a string keeps the source text instead.
type rawScalar string

func (s *rawScalar) UnmarshalYAML(unmarshal func(any) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordNotText, err)
	}
	*s = rawScalar(text)
	return nil
}

// UnmarshalTOML accepts strings and integers. TOML floats lose their
// written form, so they are rejected.
func (s *rawScalar) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*s = rawScalar(v)
	case int64:
		*s = rawScalar(strconv.FormatInt(v, 10))
	default:
		return fmt.Errorf("%w: got %T", ErrPasswordNotText, value)
	}
	return nil
}

func (s *rawScalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = rawScalar(text)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*s = rawScalar(data)
	default:
		return fmt.Errorf("%w: got %s", ErrPasswordNotText, data)
	}
	return nil
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func stringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{scalarString(v)}
	}
}

func cloneMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
