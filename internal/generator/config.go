package generator

import (
	"strings"

	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/runtimeconfig"
)

// Config captures runtime behaviour toggles for the pipeline.
type Config struct {
	Site SiteConfig
	// OutputDir is only used to keep the output out of the scan; artifact
	// paths are relative to the storage provider root.
	OutputDir         string
	CleanBuild        bool
	GenerateSitemap   bool
	GenerateRobots    bool
	GenerateFeeds     bool
	FeedLimit         int
	DescriptionLength int
	ExcludeDirs       []string
	ExcludeFiles      []string
	IncludeDrafts     bool
	AboutPage         string
	AboutTitle        string
	LockLabel         string
	AssetPath         string
}

// SiteConfig is the site-wide data every template sees.
type SiteConfig struct {
	Title       string
	Description string
	BaseURL     string
	Language    string
	Author      string
	Nav         []NavLink
}

// NavLink is one entry of the top navigation.
type NavLink struct {
	Label string
	URL   string
}

// ConfigFromRuntime maps the loaded runtime configuration onto the
// pipeline settings.
func ConfigFromRuntime(cfg runtimeconfig.Config) Config {
	nav := make([]NavLink, 0, len(cfg.Site.Nav))
	for _, link := range cfg.Site.Nav {
		nav = append(nav, NavLink{Label: link.Label, URL: link.URL})
	}
	return Config{
		Site: SiteConfig{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			BaseURL:     strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/"),
			Language:    cfg.Site.Language,
			Author:      cfg.Site.Author,
			Nav:         nav,
		},
		OutputDir:         cfg.Generator.OutputDir,
		CleanBuild:        cfg.Generator.CleanBuild,
		GenerateSitemap:   cfg.Generator.GenerateSitemap,
		GenerateRobots:    cfg.Generator.GenerateRobots,
		GenerateFeeds:     cfg.Generator.GenerateFeeds,
		FeedLimit:         cfg.Generator.FeedLimit,
		DescriptionLength: cfg.Generator.DescriptionLength,
		ExcludeDirs:       append([]string(nil), cfg.Content.ExcludeDirs...),
		ExcludeFiles:      append([]string(nil), cfg.Content.ExcludeFiles...),
		AboutPage:         cfg.Content.AboutPage,
		AboutTitle:        cfg.Content.AboutTitle,
		LockLabel:         cfg.Protection.LockLabel,
		AssetPath:         cfg.Protection.AssetPath,
	}
}

// AssemblerConfigFromRuntime maps the protection section onto the gate
// assembler settings.
func AssemblerConfigFromRuntime(cfg runtimeconfig.Config) protect.AssemblerConfig {
	return protect.AssemblerConfig{
		CryptoJSURL:  cfg.Protection.CryptoJSURL,
		MarkedURL:    cfg.Protection.MarkedURL,
		AssetPath:    cfg.Protection.AssetPath,
		PromptLabel:  cfg.Protection.PromptLabel,
		ButtonLabel:  cfg.Protection.ButtonLabel,
		ErrorMessage: cfg.Protection.ErrorMessage,
	}
}

func (c Config) withDefaults() Config {
	if c.DescriptionLength <= 0 {
		c.DescriptionLength = 150
	}
	if c.FeedLimit <= 0 {
		c.FeedLimit = 20
	}
	if strings.TrimSpace(c.AboutTitle) == "" {
		c.AboutTitle = "About"
	}
	if strings.TrimSpace(c.LockLabel) == "" {
		c.LockLabel = "Protected"
	}
	if strings.TrimSpace(c.AssetPath) == "" {
		c.AssetPath = "/assets/" + protect.ClientAssetName
	}
	if name := outputDirName(c.OutputDir); name != "" {
		c.ExcludeDirs = appendMissing(c.ExcludeDirs, name)
	}
	return c
}

// assetOutputPath returns where the client routine is written. A remote
// asset URL still gets a local copy at the default location.
func (c Config) assetOutputPath() string {
	if strings.HasPrefix(c.AssetPath, "/") && !strings.HasPrefix(c.AssetPath, "//") {
		return strings.TrimPrefix(c.AssetPath, "/")
	}
	return "assets/" + protect.ClientAssetName
}

func appendMissing(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(append([]string(nil), values...), value)
}
