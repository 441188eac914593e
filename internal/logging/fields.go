package logging

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-garden/pkg/interfaces"
)

type fieldsKey struct{}

// WithFields returns logger with fields attached when it implements
// interfaces.FieldsLogger, and logger unchanged otherwise. The map is
// copied so callers may reuse it.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// ContextWithFields stores fields on ctx for loggers that read them through
// WithContext. Fields already on ctx are kept unless overwritten.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// Redacted replaces values logged under a secret key.
const Redacted = "[redacted]"

var secretKeys = []string{"password", "passphrase", "secret", "plaintext"}

// IsSecretKey reports whether values logged under key must never be written.
func IsSecretKey(key string) bool {
	return slices.Contains(secretKeys, strings.ToLower(strings.TrimSpace(key)))
}
