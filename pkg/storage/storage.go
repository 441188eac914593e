package storage

import "context"

// Operation names understood by artifact providers. The generator routes every
// write through Exec/Query using these identifiers so providers can map them
// onto a filesystem, an object store, or an in-memory recorder.
const (
	OpEnsureDir = "garden.ensure_dir"
	OpWrite     = "garden.write"
	OpRead      = "garden.read"
	OpRemove    = "garden.remove"
)

// Provider encapsulates the operations required to persist build artifacts.
type Provider interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Transaction(ctx context.Context, fn func(tx Transaction) error) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

type Transaction interface {
	Provider
	Commit() error
	Rollback() error
}
