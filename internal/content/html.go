package content

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// HTMLMeta is the metadata carried by a hand-written HTML article.
type HTMLMeta struct {
	Title       string
	Date        string
	Description string
	Password    string
}

// ReadHTMLMeta extracts <title>, the first <time> (falling back to
// <meta name="date">), and the description and password meta tags.
func ReadHTMLMeta(data []byte) (HTMLMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return HTMLMeta{}, err
	}

	meta := HTMLMeta{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Date:        strings.TrimSpace(doc.Find("time").First().Text()),
		Description: metaContent(doc, "description"),
		Password:    metaContent(doc, "password"),
	}
	if meta.Date == "" {
		if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			meta.Date = strings.TrimSpace(datetime)
		}
	}
	if meta.Date == "" {
		meta.Date = metaContent(doc, "date")
	}
	return meta, nil
}

func metaContent(doc *goquery.Document, name string) string {
	var value string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if attr, _ := s.Attr("name"); strings.EqualFold(strings.TrimSpace(attr), name) {
			value, _ = s.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(value)
}

var (
	bodyOpen  = regexp.MustCompile(`(?is)<body(?:\s[^>]*)?>`)
	bodyClose = regexp.MustCompile(`(?i)</body\s*>`)
)

// BodyInnerHTML returns the bytes between <body ...> and </body> exactly as
// authored. Documents without a body element are returned whole.
func BodyInnerHTML(data []byte) string {
	open := bodyOpen.FindIndex(data)
	if open == nil {
		return string(data)
	}
	rest := data[open[1]:]
	closes := bodyClose.FindAllIndex(rest, -1)
	if len(closes) == 0 {
		return string(rest)
	}
	last := closes[len(closes)-1]
	return string(rest[:last[0]])
}

// Excerpt returns the text of the first paragraph in html, truncated to
// limit runes with a trailing "...". A limit of zero disables truncation.
func Excerpt(html string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(doc.Find("p").First().Text())
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		text = string(runes[:limit]) + "..."
	}
	return text
}
