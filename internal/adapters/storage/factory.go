package storage

import (
	"context"
	"fmt"
	"strings"

	gardenstorage "github.com/goliatone/go-garden/pkg/storage"
)

// Config selects and configures an artifact provider.
type Config struct {
	// Provider is "filesystem" (default), "minio" or "memory".
	Provider  string
	OutputDir string
	MinIO     MinIOConfig
}

// New builds the provider named by cfg.Provider.
func New(ctx context.Context, cfg Config) (gardenstorage.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "filesystem":
		return NewFilesystem(cfg.OutputDir), nil
	case "minio":
		return NewMinIO(ctx, cfg.MinIO)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: provider %q", ErrUnsupportedOperation, cfg.Provider)
	}
}
