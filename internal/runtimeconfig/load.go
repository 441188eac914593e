package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GARDEN_"

// ConfigFiles lists the file names Load probes, in order.
var ConfigFiles = []string{"garden.yaml", "garden.yml", "garden.toml"}

var ErrConfigFileInvalid = errors.New("garden config: config file could not be parsed")
var ErrEnvValueInvalid = errors.New("garden config: environment value is invalid")

// Load resolves the configuration for a build rooted at dir: defaults, then
// the first config file found, then .env values, then the process
// environment. The result is validated before it is returned.
func Load(dir string) (Config, error) {
	return LoadWithEnv(dir, os.Environ())
}

// LoadWithEnv behaves like Load but reads overrides from environ
// (KEY=VALUE pairs) instead of the process environment.
func LoadWithEnv(dir string, environ []string) (Config, error) {
	cfg := DefaultConfig()
	defaultTemplates := cfg.Templates.Dir

	if err := applyFile(&cfg, dir); err != nil {
		return Config{}, err
	}

	env, err := collectEnv(dir, environ)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	if cfg.Templates.Dir != defaultTemplates {
		cfg.Templates.Explicit = true
	}
	if err := cfg.ValidateAt(dir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, dir string) error {
	for _, name := range ConfigFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfigFileInvalid, name, err)
		}
		if err := decode(cfg, name, data); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfigFileInvalid, name, err)
		}
		if raw := explicitTemplatesDir(name, data); raw {
			cfg.Templates.Explicit = true
		}
		return nil
	}
	return nil
}

func decode(cfg *Config, name string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch filepath.Ext(name) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// explicitTemplatesDir reports whether the file names templates.dir at all,
// including when it repeats the default value.
func explicitTemplatesDir(name string, data []byte) bool {
	var probe struct {
		Templates struct {
			Dir *string `yaml:"dir" toml:"dir"`
		} `yaml:"templates" toml:"templates"`
	}
	var err error
	if filepath.Ext(name) == ".toml" {
		err = toml.Unmarshal(data, &probe)
	} else {
		err = yaml.Unmarshal(data, &probe)
	}
	return err == nil && probe.Templates.Dir != nil
}

// collectEnv merges dir/.env with environ; real environment values win.
func collectEnv(dir string, environ []string) (map[string]string, error) {
	values := map[string]string{}
	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	switch {
	case err == nil:
		for key, value := range dotenv {
			values[key] = value
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("%w: .env: %v", ErrConfigFileInvalid, err)
	}
	for _, pair := range environ {
		key, value, ok := strings.Cut(pair, "=")
		if ok && strings.HasPrefix(key, EnvPrefix) {
			values[key] = value
		}
	}
	return values, nil
}

type envBinding struct {
	key   string
	apply func(cfg *Config, value string) error
}

func stringVar(key string, target func(*Config) *string) envBinding {
	return envBinding{key: key, apply: func(cfg *Config, value string) error {
		*target(cfg) = value
		return nil
	}}
}

func boolVar(key string, target func(*Config) *bool) envBinding {
	return envBinding{key: key, apply: func(cfg *Config, value string) error {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target(cfg) = parsed
		return nil
	}}
}

func intVar(key string, target func(*Config) *int) envBinding {
	return envBinding{key: key, apply: func(cfg *Config, value string) error {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		*target(cfg) = parsed
		return nil
	}}
}

func listVar(key string, target func(*Config) *[]string) envBinding {
	return envBinding{key: key, apply: func(cfg *Config, value string) error {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		*target(cfg) = out
		return nil
	}}
}

var envBindings = []envBinding{
	stringVar("SITE_TITLE", func(c *Config) *string { return &c.Site.Title }),
	stringVar("SITE_DESCRIPTION", func(c *Config) *string { return &c.Site.Description }),
	stringVar("BASE_URL", func(c *Config) *string { return &c.Site.BaseURL }),
	stringVar("SITE_LANGUAGE", func(c *Config) *string { return &c.Site.Language }),
	stringVar("SITE_AUTHOR", func(c *Config) *string { return &c.Site.Author }),
	stringVar("CONTENT_ROOT", func(c *Config) *string { return &c.Content.Root }),
	listVar("EXCLUDE_DIRS", func(c *Config) *[]string { return &c.Content.ExcludeDirs }),
	listVar("EXCLUDE_FILES", func(c *Config) *[]string { return &c.Content.ExcludeFiles }),
	stringVar("ABOUT_PAGE", func(c *Config) *string { return &c.Content.AboutPage }),
	stringVar("TEMPLATES_DIR", func(c *Config) *string { return &c.Templates.Dir }),
	stringVar("OUTPUT_DIR", func(c *Config) *string { return &c.Generator.OutputDir }),
	boolVar("CLEAN_BUILD", func(c *Config) *bool { return &c.Generator.CleanBuild }),
	boolVar("SITEMAP", func(c *Config) *bool { return &c.Generator.GenerateSitemap }),
	boolVar("ROBOTS", func(c *Config) *bool { return &c.Generator.GenerateRobots }),
	boolVar("FEEDS", func(c *Config) *bool { return &c.Generator.GenerateFeeds }),
	intVar("FEED_LIMIT", func(c *Config) *int { return &c.Generator.FeedLimit }),
	intVar("PBKDF2_ITERATIONS", func(c *Config) *int { return &c.Protection.Iterations }),
	stringVar("CRYPTOJS_URL", func(c *Config) *string { return &c.Protection.CryptoJSURL }),
	stringVar("MARKED_URL", func(c *Config) *string { return &c.Protection.MarkedURL }),
	stringVar("STORAGE_PROVIDER", func(c *Config) *string { return &c.Storage.Provider }),
	stringVar("MINIO_ENDPOINT", func(c *Config) *string { return &c.Storage.MinIO.Endpoint }),
	stringVar("MINIO_ACCESS_KEY", func(c *Config) *string { return &c.Storage.MinIO.AccessKey }),
	stringVar("MINIO_SECRET_KEY", func(c *Config) *string { return &c.Storage.MinIO.SecretKey }),
	stringVar("MINIO_BUCKET", func(c *Config) *string { return &c.Storage.MinIO.Bucket }),
	stringVar("MINIO_PREFIX", func(c *Config) *string { return &c.Storage.MinIO.Prefix }),
	boolVar("MINIO_USE_SSL", func(c *Config) *bool { return &c.Storage.MinIO.UseSSL }),
	stringVar("LOG_PROVIDER", func(c *Config) *string { return &c.Logging.Provider }),
	stringVar("LOG_LEVEL", func(c *Config) *string { return &c.Logging.Level }),
	stringVar("LOG_FORMAT", func(c *Config) *string { return &c.Logging.Format }),
	listVar("LOG_FOCUS", func(c *Config) *[]string { return &c.Logging.Focus }),
	boolVar("METRICS_ENABLED", func(c *Config) *bool { return &c.Metrics.Enabled }),
	stringVar("METRICS_FILE", func(c *Config) *string { return &c.Metrics.TextfilePath }),
}

func applyEnv(cfg *Config, env map[string]string) error {
	for _, binding := range envBindings {
		key := EnvPrefix + binding.key
		value, ok := env[key]
		if !ok {
			continue
		}
		if err := binding.apply(cfg, value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrEnvValueInvalid, key, err)
		}
		if binding.key == "TEMPLATES_DIR" {
			cfg.Templates.Explicit = true
		}
	}
	return nil
}
