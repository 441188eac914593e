package storage

import (
	"context"
	"errors"
	"fmt"

	gardenstorage "github.com/goliatone/go-garden/pkg/storage"
)

var (
	ErrUnsupportedOperation = errors.New("storage: unsupported operation")
	ErrMissingPath          = errors.New("storage: operation requires a path argument")
	ErrMissingContent       = errors.New("storage: write requires an io.Reader argument")
	ErrNestedTransaction    = errors.New("storage: nested transactions not supported")
)

type result int64

func (r result) RowsAffected() (int64, error) { return int64(r), nil }
func (result) LastInsertId() (int64, error)   { return 0, nil }

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return errors.New("storage: no rows") }
func (emptyRows) Close() error      { return nil }

// byteRows yields one row holding the artifact contents.
type byteRows struct {
	data []byte
	read bool
}

func (r *byteRows) Next() bool {
	if r.read {
		return false
	}
	r.read = true
	return true
}

func (r *byteRows) Scan(dest ...any) error {
	if len(dest) == 0 {
		return fmt.Errorf("storage: scan requires destination")
	}
	out, ok := dest[0].(*[]byte)
	if !ok {
		return fmt.Errorf("storage: unsupported scan destination %T", dest[0])
	}
	*out = append((*out)[:0], r.data...)
	return nil
}

func (r *byteRows) Close() error { return nil }

type passthroughTx struct {
	provider gardenstorage.Provider
}

func (tx *passthroughTx) Query(ctx context.Context, query string, args ...any) (gardenstorage.Rows, error) {
	return tx.provider.Query(ctx, query, args...)
}

func (tx *passthroughTx) Exec(ctx context.Context, query string, args ...any) (gardenstorage.Result, error) {
	return tx.provider.Exec(ctx, query, args...)
}

func (tx *passthroughTx) Transaction(context.Context, func(gardenstorage.Transaction) error) error {
	return ErrNestedTransaction
}

func (tx *passthroughTx) Commit() error   { return nil }
func (tx *passthroughTx) Rollback() error { return nil }
