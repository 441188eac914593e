package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// Config captures the options exposed by the go-logger adapter.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider wraps go-logger so it satisfies the garden logging interfaces.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider constructs a logger provider backed by go-logger.
func NewProvider(cfg Config) (*Provider, error) {
	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	if focus := normalizeFocus(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}

	return &Provider{root: root}, nil
}

// GetLogger returns a named go-logger child adapted to interfaces.Logger.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return wrap(p.root)
	}
	return wrap(p.root.GetLogger(name))
}

func wrap(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, redactArgs(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, redactArgs(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, redactArgs(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, redactArgs(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, redactArgs(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, redactArgs(args)...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	cleaned := redactFields(fields)
	switch inner := l.inner.(type) {
	case glog.FieldsLogger:
		return wrap(inner.WithFields(cleaned))
	case interface{ With(...any) *glog.BaseLogger }:
		args := make([]any, 0, len(cleaned)*2)
		for _, key := range slices.Sorted(maps.Keys(cleaned)) {
			args = append(args, key, cleaned[key])
		}
		return wrap(inner.With(args...))
	}
	return l
}

// WithContext binds ctx and lifts any fields stored via
// logging.ContextWithFields onto the child logger.
func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	child := wrap(l.inner.WithContext(ctx))
	if fields := logging.ContextFields(ctx); len(fields) > 0 {
		return logging.WithFields(child, fields)
	}
	return child
}

func redactFields(fields map[string]any) map[string]any {
	out := maps.Clone(fields)
	for key := range out {
		if logging.IsSecretKey(key) {
			out[key] = logging.Redacted
		}
	}
	return out
}

// redactArgs masks the value following each secret key.
func redactArgs(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || !logging.IsSecretKey(key) {
			continue
		}
		if out == nil {
			out = slices.Clone(args)
		}
		out[i+1] = logging.Redacted
	}
	if out == nil {
		return args
	}
	return out
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return ""
	}
}

func normalizeFocus(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
