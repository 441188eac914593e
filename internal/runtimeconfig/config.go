package runtimeconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidConfig wraps field-level validation failures.
var ErrInvalidConfig = errors.New("garden config: invalid configuration")

var ErrOutputDirRequired = errors.New("garden config: generator output directory is required")
var ErrOutputDirIsContentRoot = errors.New("garden config: output directory must not be or contain the content root")
var ErrOutputDirInsideTemplates = errors.New("garden config: output directory must not live inside the templates directory")
var ErrOutputDirContainsTemplates = errors.New("garden config: output directory must not contain the templates directory")
var ErrIterationsTooLow = errors.New("garden config: pbkdf2 iterations below minimum")
var ErrStorageProviderUnknown = errors.New("garden config: storage provider is invalid")
var ErrMinIOEndpointRequired = errors.New("garden config: minio endpoint and bucket are required when storage provider is minio")
var ErrLoggingProviderUnknown = errors.New("garden config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("garden config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("garden config: logging format is invalid")
var ErrMetricsPathRequired = errors.New("garden config: metrics textfile path is required when metrics are enabled")

// MinIterations is the lowest PBKDF2 work factor a build accepts.
const MinIterations = 1000

// Config aggregates every knob of a garden build. The zero value is not
// usable; start from DefaultConfig or Load.
type Config struct {
	Site       SiteConfig       `yaml:"site" toml:"site"`
	Content    ContentConfig    `yaml:"content" toml:"content"`
	Templates  TemplatesConfig  `yaml:"templates" toml:"templates"`
	Generator  GeneratorConfig  `yaml:"generator" toml:"generator"`
	Protection ProtectionConfig `yaml:"protection" toml:"protection"`
	Storage    StorageConfig    `yaml:"storage" toml:"storage"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title       string    `yaml:"title" toml:"title"`
	Description string    `yaml:"description" toml:"description"`
	BaseURL     string    `yaml:"base_url" toml:"base_url"`
	Language    string    `yaml:"language" toml:"language"`
	Author      string    `yaml:"author" toml:"author"`
	Nav         []NavLink `yaml:"nav" toml:"nav"`
}

// NavLink is one entry of the top navigation.
type NavLink struct {
	Label string `yaml:"label" toml:"label"`
	URL   string `yaml:"url" toml:"url"`
}

// ContentConfig controls discovery of source files.
type ContentConfig struct {
	Root         string   `yaml:"root" toml:"root"`
	ExcludeDirs  []string `yaml:"exclude_dirs" toml:"exclude_dirs"`
	ExcludeFiles []string `yaml:"exclude_files" toml:"exclude_files"`
	AboutPage    string   `yaml:"about_page" toml:"about_page"`
	AboutTitle   string   `yaml:"about_title" toml:"about_title"`
}

// TemplatesConfig points at the optional template override directory.
// Explicit is set by Load when the directory came from a file or the
// environment; a missing explicit directory is a setup failure.
type TemplatesConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	Explicit bool   `yaml:"-" toml:"-"`
}

// GeneratorConfig captures output behaviour.
type GeneratorConfig struct {
	OutputDir         string `yaml:"output_dir" toml:"output_dir"`
	CleanBuild        bool   `yaml:"clean_build" toml:"clean_build"`
	GenerateSitemap   bool   `yaml:"sitemap" toml:"sitemap"`
	GenerateRobots    bool   `yaml:"robots" toml:"robots"`
	GenerateFeeds     bool   `yaml:"feeds" toml:"feeds"`
	FeedLimit         int    `yaml:"feed_limit" toml:"feed_limit"`
	DescriptionLength int    `yaml:"description_length" toml:"description_length"`
}

// ProtectionConfig captures the password gate settings.
type ProtectionConfig struct {
	Iterations   int    `yaml:"iterations" toml:"iterations"`
	CryptoJSURL  string `yaml:"cryptojs_url" toml:"cryptojs_url"`
	MarkedURL    string `yaml:"marked_url" toml:"marked_url"`
	AssetPath    string `yaml:"asset_path" toml:"asset_path"`
	PromptLabel  string `yaml:"prompt_label" toml:"prompt_label"`
	ButtonLabel  string `yaml:"button_label" toml:"button_label"`
	ErrorMessage string `yaml:"error_message" toml:"error_message"`
	LockLabel    string `yaml:"lock_label" toml:"lock_label"`
}

// StorageConfig selects where artifacts are written. The memory provider
// performs a dry run.
type StorageConfig struct {
	Provider string      `yaml:"provider" toml:"provider"`
	MinIO    MinIOConfig `yaml:"minio" toml:"minio"`
}

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	AccessKey string `yaml:"access_key" toml:"access_key"`
	SecretKey string `yaml:"secret_key" toml:"secret_key"`
	Bucket    string `yaml:"bucket" toml:"bucket"`
	Prefix    string `yaml:"prefix" toml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl" toml:"use_ssl"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" toml:"provider"`
	Level     string   `yaml:"level" toml:"level"`
	Format    string   `yaml:"format" toml:"format"`
	AddSource bool     `yaml:"add_source" toml:"add_source"`
	Focus     []string `yaml:"focus" toml:"focus"`
}

// MetricsConfig enables the Prometheus textfile written after each build.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled" toml:"enabled"`
	TextfilePath string `yaml:"textfile_path" toml:"textfile_path"`
}

const (
	DefaultCryptoJSURL = "https://cdnjs.cloudflare.com/ajax/libs/crypto-js/4.2.0/crypto-js.min.js"
	DefaultMarkedURL   = "https://cdn.jsdelivr.net/npm/marked@12.0.2/marked.min.js"
	DefaultAssetPath   = "/assets/garden-unlock.v1.js"
)

// DefaultConfig returns the settings used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title:       "Garden",
			Description: "A quiet digital garden of notes and essays",
			Language:    "en",
			Nav: []NavLink{
				{Label: "Home", URL: "/"},
				{Label: "About", URL: "/about.html"},
			},
		},
		Content: ContentConfig{
			Root:         ".",
			ExcludeDirs:  []string{"node_modules", ".git", "dist", "_templates", "_content"},
			ExcludeFiles: []string{"readme.md", "deploy.md", "quickstart.md"},
			AboutPage:    "_content/about.md",
			AboutTitle:   "About",
		},
		Templates: TemplatesConfig{
			Dir: "_templates",
		},
		Generator: GeneratorConfig{
			OutputDir:         "dist",
			CleanBuild:        true,
			GenerateSitemap:   true,
			GenerateRobots:    true,
			GenerateFeeds:     true,
			FeedLimit:         20,
			DescriptionLength: 150,
		},
		Protection: ProtectionConfig{
			Iterations:   20000,
			CryptoJSURL:  DefaultCryptoJSURL,
			MarkedURL:    DefaultMarkedURL,
			AssetPath:    DefaultAssetPath,
			PromptLabel:  "This article is password protected",
			ButtonLabel:  "Unlock",
			ErrorMessage: "Incorrect password",
			LockLabel:    "Protected",
		},
		Storage: StorageConfig{
			Provider: "filesystem",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Metrics: MetricsConfig{
			TextfilePath: "garden_build.prom",
		},
	}
}

// Validate performs field checks with ozzo-validation, then cross-field
// consistency checks that report sentinel errors. Relative paths are
// resolved against the working directory; use ValidateAt for a site root.
func (cfg Config) Validate() error {
	return cfg.ValidateAt(".")
}

// ValidateAt behaves like Validate but resolves content, templates and
// output paths against dir before checking how they overlap.
func (cfg Config) ValidateAt(dir string) error {
	if err := validation.ValidateStruct(&cfg.Generator,
		validation.Field(&cfg.Generator.FeedLimit, validation.Min(0)),
		validation.Field(&cfg.Generator.DescriptionLength, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("%w: generator: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&cfg.Protection,
		validation.Field(&cfg.Protection.CryptoJSURL, validation.Required),
		validation.Field(&cfg.Protection.MarkedURL, validation.Required),
		validation.Field(&cfg.Protection.AssetPath, validation.Required),
		validation.Field(&cfg.Protection.ButtonLabel, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: protection: %v", ErrInvalidConfig, err)
	}
	if err := validation.ValidateStruct(&cfg.Content,
		validation.Field(&cfg.Content.Root, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: content: %v", ErrInvalidConfig, err)
	}

	outputDir := strings.TrimSpace(cfg.Generator.OutputDir)
	if outputDir == "" {
		return ErrOutputDirRequired
	}
	if err := checkOutputPaths(dir, outputDir, cfg.Content.Root, cfg.Templates.Dir); err != nil {
		return err
	}
	if cfg.Protection.Iterations < MinIterations {
		return fmt.Errorf("%w: %d < %d", ErrIterationsTooLow, cfg.Protection.Iterations, MinIterations)
	}

	switch normalize(cfg.Storage.Provider) {
	case "", "filesystem", "memory":
	case "minio":
		if strings.TrimSpace(cfg.Storage.MinIO.Endpoint) == "" || strings.TrimSpace(cfg.Storage.MinIO.Bucket) == "" {
			return ErrMinIOEndpointRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	provider := normalize(cfg.Logging.Provider)
	if provider != "" && provider != "console" && provider != "gologger" {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}

	if cfg.Metrics.Enabled && strings.TrimSpace(cfg.Metrics.TextfilePath) == "" {
		return ErrMetricsPathRequired
	}
	return nil
}

// checkOutputPaths rejects an output directory whose clean step would
// remove sources: the content root or one of its ancestors, the templates
// directory or one of its ancestors, or a directory inside the templates.
func checkOutputPaths(dir, outputDir, contentRoot, templatesDir string) error {
	out, err := absPath(dir, outputDir)
	if err != nil {
		return fmt.Errorf("%w: output_dir: %v", ErrInvalidConfig, err)
	}
	root, err := absPath(dir, contentRoot)
	if err != nil {
		return fmt.Errorf("%w: content root: %v", ErrInvalidConfig, err)
	}
	if within(out, root) {
		return ErrOutputDirIsContentRoot
	}
	if strings.TrimSpace(templatesDir) == "" {
		return nil
	}
	tpl, err := absPath(dir, templatesDir)
	if err != nil {
		return fmt.Errorf("%w: templates dir: %v", ErrInvalidConfig, err)
	}
	if within(tpl, out) {
		return ErrOutputDirInsideTemplates
	}
	if within(out, tpl) {
		return ErrOutputDirContainsTemplates
	}
	return nil
}

func absPath(dir, path string) (string, error) {
	path = strings.TrimSpace(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return filepath.Abs(path)
}

// within reports whether child is parent or lives below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
