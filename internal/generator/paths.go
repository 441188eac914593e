package generator

import (
	"path"
	"strings"
)

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	targetBase := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return targetBase + "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return targetBase + normalized
}

// outputDirName returns the directory name to keep out of the scan when the
// output lives inside the content root.
func outputDirName(outputDir string) string {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(outputDir), "\\", "/"))
	if clean == "." || clean == "/" || strings.HasPrefix(clean, "../") || clean == ".." {
		return ""
	}
	clean = strings.TrimPrefix(clean, "./")
	if strings.HasPrefix(clean, "/") {
		return ""
	}
	if idx := strings.Index(clean, "/"); idx >= 0 {
		return clean[:idx]
	}
	return clean
}
