package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-garden/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	if fields == nil {
		fields = map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "garden.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	// Ensure WithContext/WithFields do not panic.
	ctx := context.Background()
	logger = logger.WithContext(ctx)
	logger = WithFields(logger, map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, buildModule)

	if len(provider.requested) != 1 || provider.requested[0] != buildModule {
		t.Fatalf("expected module %s, got %v", buildModule, provider.requested)
	}

	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}

	if got, ok := rec.fields[0]["module"]; !ok || got != buildModule {
		t.Fatalf("expected module field %s, got %v", buildModule, rec.fields[0]["module"])
	}

	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestContentLoggerRequestsContentModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = ContentLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != contentModule {
		t.Fatalf("expected content module request, got %v", provider.requested)
	}
}

func TestProtectLoggerRequestsProtectModule(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	_ = ProtectLogger(provider)
	if len(provider.requested) == 0 || provider.requested[0] != protectModule {
		t.Fatalf("expected protect module request, got %v", provider.requested)
	}
}

func TestWithItemContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	_ = WithItemContext(rec, " notes/a.md ", "")

	if len(rec.fields) != 1 {
		t.Fatalf("expected a single WithFields call, got %d", len(rec.fields))
	}
	if rec.fields[0][fieldItemPath] != "notes/a.md" {
		t.Fatalf("expected trimmed item path, got %v", rec.fields[0][fieldItemPath])
	}
	if _, ok := rec.fields[0][fieldItemFormat]; ok {
		t.Fatalf("expected empty format to be skipped, got %v", rec.fields[0])
	}
}

func TestWithBuildIDIgnoresBlank(t *testing.T) {
	rec := &recordingLogger{}

	if got := WithBuildID(rec, "  "); got != rec {
		t.Fatalf("expected logger to be returned unchanged")
	}
	if len(rec.fields) != 0 {
		t.Fatalf("expected no fields applied, got %v", rec.fields)
	}
}
