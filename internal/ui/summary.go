package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-garden/internal/generator"
)

// maxListedErrors bounds the failures printed under the summary box.
const maxListedErrors = 10

// RenderSummary formats a finished build for the terminal.
func RenderSummary(result *generator.BuildResult, outputDir string) string {
	if result == nil {
		return ErrorStyle.Render("no build result")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("garden build"))
	b.WriteString(" ")
	b.WriteString(DimStyle.Render(result.BuildID))
	b.WriteString("\n")

	rows := []string{
		row("articles", fmt.Sprint(result.Listing.Len())),
		row("rendered", fmt.Sprint(result.Rendered)),
		row("copied", fmt.Sprint(result.Copied)),
		row("protected", fmt.Sprint(result.Protected)),
		row("skipped", fmt.Sprint(result.Skipped)),
		row("artifacts", fmt.Sprint(result.Artifacts)),
		row("output", outputDir),
		row("duration", result.Duration.Round(time.Millisecond).String()),
	}
	b.WriteString(BoxStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if result.Failed == 0 {
		b.WriteString(SuccessStyle.Render("✓ build complete"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(WarningStyle.Render(fmt.Sprintf("! %d item(s) failed", result.Failed)))
	b.WriteString("\n")
	for i, err := range result.Errors {
		if i == maxListedErrors {
			b.WriteString(DimStyle.Render(fmt.Sprintf("  … %d more", len(result.Errors)-maxListedErrors)))
			b.WriteString("\n")
			break
		}
		b.WriteString(ErrorStyle.Render("  ✗ "))
		b.WriteString(describe(err))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFailure formats a setup failure that stopped the build.
func RenderFailure(err error) string {
	return ErrorStyle.Render("✗ build failed: ") + err.Error() + "\n"
}

func row(label, value string) string {
	return DimStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value
}

func describe(err error) string {
	var itemErr *generator.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Path + ": " + itemErr.Err.Error()
	}
	return err.Error()
}
