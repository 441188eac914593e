package generator

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// sitemapPage is one published URL with its best known modification date.
type sitemapPage struct {
	Route   string
	Date    string
	ModTime time.Time
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// lastMod prefers the article date, then the source mtime, then fallback.
func (p sitemapPage) lastMod(fallback time.Time) string {
	switch {
	case p.Date != "":
		return p.Date
	case !p.ModTime.IsZero():
		return p.ModTime.UTC().Format(time.DateOnly)
	case !fallback.IsZero():
		return fallback.UTC().Format(time.DateOnly)
	}
	return ""
}

// buildSitemap lists every page once, ordered by location.
func buildSitemap(baseURL string, pages []sitemapPage, fallback time.Time) (string, error) {
	set := urlSet{Xmlns: sitemapNamespace}
	seen := make(map[string]bool, len(pages))
	for _, page := range pages {
		loc := absoluteURL(baseURL, page.Route)
		if seen[loc] {
			continue
		}
		seen[loc] = true
		set.URLs = append(set.URLs, sitemapURL{Loc: loc, LastMod: page.lastMod(fallback)})
	}
	sort.Slice(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out) + "\n", nil
}

func buildRobots(baseURL string, includeSitemap bool) string {
	lines := []string{"User-agent: *", "Allow: /"}
	if includeSitemap {
		lines = append(lines, "", "Sitemap: "+baseURLWithFallback(baseURL)+"/sitemap.xml")
	}
	return strings.Join(lines, "\n") + "\n"
}
