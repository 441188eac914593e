package generator

import (
	"context"
	"path"
	"strings"

	"github.com/goliatone/go-garden/internal/protect"
)

// writeClientAsset publishes the versioned unlock routine. It runs once per
// build and only when at least one protected page was written.
func (p *Pipeline) writeClientAsset(ctx context.Context, writer artifactWriter) error {
	target := p.cfg.assetOutputPath()
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     protect.ClientAsset(),
		Category:    categoryAsset,
		ContentType: detectContentType(target),
	})
}

func detectContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "html", "htm":
		return "text/html; charset=utf-8"
	case "xml":
		return "application/xml"
	case "txt":
		return "text/plain; charset=utf-8"
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
