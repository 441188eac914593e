package generator

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-garden/pkg/interfaces"
	"github.com/goliatone/go-garden/pkg/storage"
)

type writeCategory string

const (
	categoryPage    writeCategory = "page"
	categoryCopy    writeCategory = "copy"
	categoryAsset   writeCategory = "asset"
	categoryIndex   writeCategory = "index"
	categorySitemap writeCategory = "sitemap"
	categoryRobots  writeCategory = "robots"
	categoryFeed    writeCategory = "feed"
)

// probePath is written and removed once per build to prove the output is
// writable before any item is processed.
const probePath = ".garden-write-check"

// writeFileRequest describes a file write routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     []byte
	Category    writeCategory
	ContentType string
}

// artifactWriter abstracts storage provider specifics for build outputs.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Remove(ctx context.Context, path string) error
}

func newArtifactWriter(provider interfaces.StorageProvider) artifactWriter {
	if provider == nil {
		return noopWriter{}
	}
	return &storageWriter{storage: provider}
}

type storageWriter struct {
	storage interfaces.StorageProvider
}

func (w *storageWriter) EnsureDir(ctx context.Context, path string) error {
	if path == "." {
		path = ""
	}
	_, err := w.storage.Exec(ctx, storage.OpEnsureDir, path)
	return err
}

func (w *storageWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	args := []any{
		req.Path,
		bytes.NewReader(req.Content),
		int64(len(req.Content)),
		string(req.Category),
		req.ContentType,
	}
	_, err := w.storage.Exec(ctx, storage.OpWrite, args...)
	return err
}

func (w *storageWriter) Remove(ctx context.Context, path string) error {
	_, err := w.storage.Exec(ctx, storage.OpRemove, path)
	return err
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (noopWriter) Remove(context.Context, string) error { return nil }
