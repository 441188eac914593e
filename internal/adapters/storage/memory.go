package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	gardenstorage "github.com/goliatone/go-garden/pkg/storage"
)

// Call records one operation issued against a Memory provider.
type Call struct {
	Query string
	Path  string
}

// Memory keeps artifacts in memory and records every call. It backs dry
// runs and tests.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []Call
	// FailWrites makes every write to these paths fail with the given error.
	FailWrites map[string]error
}

var _ gardenstorage.Provider = (*Memory)(nil)

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) Query(_ context.Context, query string, args ...any) (gardenstorage.Rows, error) {
	if query != gardenstorage.OpRead {
		return nil, ErrUnsupportedOperation
	}
	rel, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Query: query, Path: rel})
	data, ok := m.files[rel]
	if !ok {
		return emptyRows{}, nil
	}
	return &byteRows{data: append([]byte(nil), data...)}, nil
}

func (m *Memory) Exec(_ context.Context, query string, args ...any) (gardenstorage.Result, error) {
	rel, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	var data []byte
	if query == gardenstorage.OpWrite {
		reader, err := readerArg(args)
		if err != nil {
			return nil, err
		}
		if data, err = io.ReadAll(reader); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Query: query, Path: rel})

	switch query {
	case gardenstorage.OpEnsureDir:
		return result(0), nil
	case gardenstorage.OpWrite:
		if err := m.FailWrites[rel]; err != nil {
			return nil, err
		}
		if m.files == nil {
			m.files = map[string][]byte{}
		}
		m.files[rel] = data
		return result(len(data)), nil
	case gardenstorage.OpRemove:
		var removed int64
		for name := range m.files {
			if rel == "" || name == rel || strings.HasPrefix(name, rel+"/") {
				delete(m.files, name)
				removed++
			}
		}
		return result(removed), nil
	default:
		return nil, ErrUnsupportedOperation
	}
}

func (m *Memory) Transaction(_ context.Context, fn func(tx gardenstorage.Transaction) error) error {
	if fn == nil {
		return nil
	}
	return fn(&passthroughTx{provider: m})
}

// File returns the stored artifact at rel.
func (m *Memory) File(rel string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[rel]
	return append([]byte(nil), data...), ok
}

// Paths returns the stored artifact paths in ascending order.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Calls returns a copy of the recorded operations.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
