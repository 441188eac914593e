package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	storageadapter "github.com/goliatone/go-garden/internal/adapters/storage"
	"github.com/goliatone/go-garden/internal/commands"
	buildcmd "github.com/goliatone/go-garden/internal/commands/build"
	"github.com/goliatone/go-garden/internal/generator"
	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/internal/logging/console"
	"github.com/goliatone/go-garden/internal/logging/gologger"
	"github.com/goliatone/go-garden/internal/metrics"
	"github.com/goliatone/go-garden/internal/protect"
	"github.com/goliatone/go-garden/internal/runtimeconfig"
	"github.com/goliatone/go-garden/internal/templates"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// Options captures what the garden CLI hands to the bootstrap.
type Options struct {
	// Dir is the site root; config files and relative paths resolve against it.
	Dir string
	// Environ overrides the process environment when non-nil.
	Environ   []string
	LogWriter io.Writer
	// LoggerProvider replaces the configured provider.
	LoggerProvider interfaces.LoggerProvider
}

// BuildHandler executes build commands.
type BuildHandler interface {
	Execute(ctx context.Context, msg buildcmd.BuildSiteCommand) error
}

// Module bundles the wired collaborators of one build.
type Module struct {
	Config   runtimeconfig.Config
	Pipeline *generator.Pipeline
	Handler  BuildHandler
	Metrics  *metrics.Recorder
	Logger   interfaces.Logger
	// OutputDir and MetricsPath are resolved against Options.Dir.
	OutputDir   string
	MetricsPath string
}

// Command returns the build message matching the module configuration.
func (m *Module) Command() buildcmd.BuildSiteCommand {
	return buildcmd.BuildSiteCommand{
		ContentRoot: m.Config.Content.Root,
		OutputDir:   m.OutputDir,
		Storage:     m.Config.Storage.Provider,
	}
}

// BuildModule loads configuration and wires a pipeline behind a build
// command handler. Every error returned here is a setup failure.
func BuildModule(ctx context.Context, opts Options) (*Module, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	cfg, err := runtimeconfig.LoadWithEnv(dir, environ)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	provider := opts.LoggerProvider
	if provider == nil {
		provider, err = newLoggerProvider(cfg.Logging, opts.LogWriter)
		if err != nil {
			return nil, err
		}
	}
	logger := logging.ModuleLogger(provider, "garden")

	contentRoot := resolve(dir, cfg.Content.Root)
	outputDir := resolve(dir, cfg.Generator.OutputDir)

	store, err := storageadapter.New(ctx, storageadapter.Config{
		Provider:  cfg.Storage.Provider,
		OutputDir: outputDir,
		MinIO: storageadapter.MinIOConfig{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			Prefix:    cfg.Storage.MinIO.Prefix,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure storage: %w", err)
	}
	logging.StorageLogger(provider).Debug("storage.ready", "provider", cfg.Storage.Provider, "target", storageTarget(cfg, outputDir))

	renderer, err := templates.New(templates.Options{
		Dir:      resolve(dir, cfg.Templates.Dir),
		Required: cfg.Templates.Explicit,
		Logger:   logging.TemplateLogger(provider),
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	cipher := protect.NewCipher(protect.WithIterations(cfg.Protection.Iterations))
	assembler, err := protect.NewAssembler(cipher, generator.AssemblerConfigFromRuntime(cfg), logging.ProtectLogger(provider))
	if err != nil {
		return nil, fmt.Errorf("configure protection: %w", err)
	}

	deps := generator.Dependencies{
		Source:    os.DirFS(contentRoot),
		Storage:   store,
		Renderer:  renderer,
		Assembler: assembler,
		Logger:    logging.BuildLogger(provider),
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.NewRecorder()
		if err != nil {
			return nil, fmt.Errorf("configure metrics: %w", err)
		}
		deps.Metrics = recorder
	}

	genCfg := generator.ConfigFromRuntime(cfg)
	pipeline, err := generator.NewPipeline(genCfg, deps)
	if err != nil {
		return nil, fmt.Errorf("configure pipeline: %w", err)
	}

	handler := buildcmd.NewBuildSiteHandler(pipeline, commands.CommandLogger(provider, "build"))

	module := &Module{
		Config:    cfg,
		Pipeline:  pipeline,
		Handler:   handler,
		Metrics:   recorder,
		Logger:    logger,
		OutputDir: outputDir,
	}
	if recorder != nil {
		module.MetricsPath = resolve(dir, cfg.Metrics.TextfilePath)
	}
	return module, nil
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig, w io.Writer) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("configure logging: %w", err)
		}
		return provider, nil
	default:
		level := console.ParseLevel(cfg.Level)
		if w == nil {
			w = os.Stderr
		}
		return console.NewProvider(console.Options{Writer: w, MinLevel: &level, Color: isTerminal(w)}), nil
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func storageTarget(cfg runtimeconfig.Config, outputDir string) string {
	if strings.EqualFold(strings.TrimSpace(cfg.Storage.Provider), "minio") {
		return cfg.Storage.MinIO.Bucket + "/" + strings.Trim(cfg.Storage.MinIO.Prefix, "/")
	}
	return outputDir
}

func resolve(dir, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
