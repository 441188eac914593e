package generator

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-garden/internal/content"
	"github.com/goliatone/go-garden/internal/templates"
)

// siteContext builds the "site" global every template sees.
func siteContext(site SiteConfig, feeds bool) map[string]any {
	nav := make([]map[string]string, 0, len(site.Nav))
	for _, link := range site.Nav {
		nav = append(nav, map[string]string{"label": link.Label, "url": link.URL})
	}
	return map[string]any{
		"title":       siteTitle(site),
		"description": site.Description,
		"base_url":    site.BaseURL,
		"language":    site.Language,
		"author":      site.Author,
		"feeds":       feeds,
		"nav":         nav,
	}
}

// pageView is what an article template needs to know about one page.
type pageView struct {
	Title       string
	Date        string
	Description string
	Tag         string
	Protected   bool
	Content     string
	Scripts     string
}

// articleContext maps a page onto the article template. The upper-case keys
// keep placeholder-style templates ({{TITLE}}, {{DATE_HTML}},
// {{DESCRIPTION}}, {{CONTENT}}) working.
func articleContext(view pageView) map[string]any {
	description := view.Description
	if description == "" {
		description = view.Title
	}
	dateHTML := ""
	if view.Date != "" {
		escaped := html.EscapeString(view.Date)
		dateHTML = fmt.Sprintf(`<time datetime="%s">%s</time>`, escaped, escaped)
	}
	legacyContent := view.Content
	if view.Scripts != "" {
		legacyContent += "\n" + view.Scripts
	}
	return map[string]any{
		"title":       view.Title,
		"date":        view.Date,
		"description": description,
		"tag":         view.Tag,
		"protected":   view.Protected,
		"content":     templates.Safe(view.Content),
		"scripts":     templates.Safe(view.Scripts),
		"TITLE":       view.Title,
		"DATE_HTML":   templates.Safe(dateHTML),
		"DESCRIPTION": description,
		"CONTENT":     templates.Safe(legacyContent),
	}
}

// indexContext maps the listing onto the index template.
func indexContext(listing *content.Listing, lockLabel string) map[string]any {
	summaries := listing.Sorted()
	articles := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		articles = append(articles, map[string]any{
			"title":       summary.Title,
			"url":         summary.URL,
			"date":        summary.Date,
			"year":        summary.Year,
			"tag":         summary.Tag,
			"tag_key":     tagKey(summary.Tag),
			"description": summary.Description,
			"protected":   summary.Protected,
		})
	}

	tagValues := listing.Tags()
	tags := make([]map[string]string, 0, len(tagValues))
	for _, tag := range tagValues {
		tags = append(tags, map[string]string{"key": tagKey(tag), "label": tag})
	}

	return map[string]any{
		"articles":   articles,
		"tags":       tags,
		"years":      listing.Years(),
		"lock_label": lockLabel,
		"count":      len(articles),
	}
}

// tagKey turns a directory name into a filter value safe for data
// attributes. Names the slugger rejects fall back to a lower-cased form.
func tagKey(tag string) string {
	if strings.TrimSpace(tag) == "" {
		return ""
	}
	if key, err := slug.Normalize(tag); err == nil && key != "" {
		return key
	}
	return strings.ToLower(strings.Join(strings.Fields(tag), "-"))
}
