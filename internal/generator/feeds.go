package generator

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goliatone/go-garden/internal/content"
)

const (
	rssFeedPath  = "feed.xml"
	atomFeedPath = "atom.xml"
)

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	PublishedAt time.Time
}

type feedDocument struct {
	Title       string
	Description string
	Language    string
	BaseURL     string
	Items       []feedItem
}

// buildFeedDocument turns the newest summaries into feed entries. Protected
// summaries only ever carry their explicit description.
func buildFeedDocument(site SiteConfig, summaries []content.Summary, limit int, generatedAt time.Time) feedDocument {
	doc := feedDocument{
		Title:       siteTitle(site),
		Description: feedDescription(site),
		Language:    site.Language,
		BaseURL:     site.BaseURL,
	}
	for _, summary := range summaries {
		if limit > 0 && len(doc.Items) >= limit {
			break
		}
		link := absoluteURL(site.BaseURL, summary.URL)
		published, ok := parseISODate(summary.Date)
		if !ok {
			published = generatedAt
		}
		doc.Items = append(doc.Items, feedItem{
			Title:       summary.Title,
			Summary:     normalizeWhitespace(summary.Description),
			Link:        link,
			GUID:        link,
			PublishedAt: published,
		})
	}
	return doc
}

func buildRSSFeed(doc feedDocument, generatedAt time.Time) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(baseURLWithFallback(doc.BaseURL)+"/")))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(doc.Description)))
	if doc.Language != "" {
		builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(doc.Language)))
	}
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	for _, item := range doc.Items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func buildAtomFeed(doc feedDocument, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(doc.BaseURL)
	feedID := baseLink + "/" + atomFeedPath

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if doc.Language != "" {
		builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXML(doc.Language)))
	} else {
		builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	}
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXML(baseLink+"/")))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXML(feedID)))
	for _, item := range doc.Items {
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func siteTitle(site SiteConfig) string {
	if title := strings.TrimSpace(site.Title); title != "" {
		return title
	}
	if base := strings.TrimSpace(site.BaseURL); base != "" {
		return base
	}
	return "Garden"
}

func feedDescription(site SiteConfig) string {
	if desc := strings.TrimSpace(site.Description); desc != "" {
		return desc
	}
	return "Latest articles"
}

func parseISODate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}
