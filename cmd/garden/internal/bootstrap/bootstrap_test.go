package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-garden/internal/runtimeconfig"
)

func TestBuildModuleWiresPipeline(t *testing.T) {
	dir := t.TempDir()
	module, err := BuildModule(context.Background(), Options{Dir: dir, Environ: []string{}})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	if module.Pipeline == nil || module.Handler == nil {
		t.Fatal("expected pipeline and handler to be configured")
	}
	if module.Metrics != nil || module.MetricsPath != "" {
		t.Fatal("metrics must stay disabled by default")
	}
	if module.OutputDir != filepath.Join(dir, "dist") {
		t.Fatalf("unexpected output dir %q", module.OutputDir)
	}
	cmd := module.Command()
	if err := cmd.Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

func TestBuildModuleEnablesMetrics(t *testing.T) {
	dir := t.TempDir()
	module, err := BuildModule(context.Background(), Options{
		Dir:     dir,
		Environ: []string{"GARDEN_METRICS_ENABLED=true", "GARDEN_METRICS_FILE=out/build.prom"},
	})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	if module.Metrics == nil {
		t.Fatal("expected metrics recorder")
	}
	if module.MetricsPath != filepath.Join(dir, "out", "build.prom") {
		t.Fatalf("unexpected metrics path %q", module.MetricsPath)
	}
}

func TestBuildModuleSelectsGoLogger(t *testing.T) {
	module, err := BuildModule(context.Background(), Options{
		Dir:     t.TempDir(),
		Environ: []string{"GARDEN_LOG_PROVIDER=gologger", "GARDEN_LOG_FORMAT=json"},
	})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	if module.Logger == nil {
		t.Fatal("expected logger")
	}
}

func TestBuildModuleRejectsInvalidConfig(t *testing.T) {
	_, err := BuildModule(context.Background(), Options{
		Dir:     t.TempDir(),
		Environ: []string{"GARDEN_PBKDF2_ITERATIONS=1"},
	})
	if !errors.Is(err, runtimeconfig.ErrIterationsTooLow) {
		t.Fatalf("expected iterations error, got %v", err)
	}
}

func TestBuildModuleRefusesOutputThatWouldRemoveSources(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "content", "notes", "post.md")
	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(source, []byte("# Post\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	_, err := BuildModule(context.Background(), Options{
		Dir:     dir,
		Environ: []string{"GARDEN_CONTENT_ROOT=content", "GARDEN_OUTPUT_DIR=."},
	})
	if !errors.Is(err, runtimeconfig.ErrOutputDirIsContentRoot) {
		t.Fatalf("expected content root overlap error, got %v", err)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must survive a rejected config: %v", err)
	}
}
