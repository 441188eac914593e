package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-garden/pkg/interfaces"
)

const (
	rootModule     = "garden"
	contentModule  = "garden.content"
	protectModule  = "garden.protect"
	buildModule    = "garden.build"
	storageModule  = "garden.storage"
	templateModule = "garden.templates"
)

const (
	fieldItemPath   = "item_path"
	fieldItemFormat = "item_format"
	fieldBuildID    = "build_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per module.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ContentLogger returns the logger namespace reserved for content discovery.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// ProtectLogger returns the logger namespace reserved for page protection.
func ProtectLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, protectModule)
}

// BuildLogger returns the logger namespace reserved for the build pipeline.
func BuildLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, buildModule)
}

// StorageLogger returns the logger namespace reserved for artifact providers.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// TemplateLogger returns the logger namespace reserved for template rendering.
func TemplateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, templateModule)
}

// WithItemContext enriches the logger with the source path and format of a
// content item. Empty values are ignored.
func WithItemContext(logger interfaces.Logger, path, format string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldItemPath] = trimmed
	}
	if trimmed := strings.TrimSpace(format); trimmed != "" {
		fields[fieldItemFormat] = trimmed
	}
	return WithFields(logger, fields)
}

// WithBuildID tags every entry of a build run with its identifier.
func WithBuildID(logger interfaces.Logger, id string) interfaces.Logger {
	if strings.TrimSpace(id) == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldBuildID: id})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
