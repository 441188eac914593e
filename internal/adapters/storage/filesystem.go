package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gardenstorage "github.com/goliatone/go-garden/pkg/storage"
)

// Filesystem writes artifacts below root on the local disk.
type Filesystem struct {
	root string
}

var _ gardenstorage.Provider = (*Filesystem)(nil)

// NewFilesystem returns a provider rooted at root. Artifact paths are
// slash-separated and relative to root.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: filepath.Clean(root)}
}

// Root returns the directory artifacts are written to.
func (s *Filesystem) Root() string { return s.root }

func (s *Filesystem) Query(_ context.Context, query string, args ...any) (gardenstorage.Rows, error) {
	if query != gardenstorage.OpRead {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
	target, err := s.resolve(args)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return emptyRows{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &byteRows{data: data}, nil
}

func (s *Filesystem) Exec(_ context.Context, query string, args ...any) (gardenstorage.Result, error) {
	switch query {
	case gardenstorage.OpEnsureDir:
		target, err := s.resolve(args)
		if err != nil {
			return nil, err
		}
		return result(0), os.MkdirAll(target, 0o755)
	case gardenstorage.OpWrite:
		target, err := s.resolve(args)
		if err != nil {
			return nil, err
		}
		reader, err := readerArg(args)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		file, err := os.Create(target)
		if err != nil {
			return nil, err
		}
		n, copyErr := io.Copy(file, reader)
		closeErr := file.Close()
		if copyErr != nil {
			return nil, copyErr
		}
		if closeErr != nil {
			return nil, closeErr
		}
		return result(n), nil
	case gardenstorage.OpRemove:
		target, err := s.resolve(args)
		if err != nil {
			return nil, err
		}
		if err := os.RemoveAll(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return result(0), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, query)
	}
}

// Transaction runs fn directly; file writes are not rolled back.
func (s *Filesystem) Transaction(ctx context.Context, fn func(tx gardenstorage.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&passthroughTx{provider: s})
}

// resolve maps the first argument onto a path inside root. An empty path
// addresses root itself.
func (s *Filesystem) resolve(args []any) (string, error) {
	rel, err := pathArg(args)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return s.root, nil
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// pathArg validates and normalises the artifact path argument.
func pathArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrMissingPath
	}
	raw, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrMissingPath, args[0])
	}
	clean := filepath.ToSlash(filepath.Clean("/" + filepath.ToSlash(raw)))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." {
		clean = ""
	}
	return clean, nil
}

func readerArg(args []any) (io.Reader, error) {
	if len(args) < 2 {
		return nil, ErrMissingContent
	}
	reader, ok := args[1].(io.Reader)
	if !ok || reader == nil {
		return nil, fmt.Errorf("%w: got %T", ErrMissingContent, args[1])
	}
	return reader, nil
}
