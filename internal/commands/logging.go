package commands

import (
	"strings"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// CommandLogger returns the logger for the named command family, scoped
// under garden.commands.
func CommandLogger(provider interfaces.LoggerProvider, family string) interfaces.Logger {
	family = strings.Trim(strings.TrimSpace(family), ".")
	if family == "" {
		family = "core"
	}
	return logging.WithFields(logging.ModuleLogger(provider, "garden.commands."+family), map[string]any{
		"component": "command",
	})
}
