package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// ScanOptions controls which entries the scanner skips.
type ScanOptions struct {
	// ExcludeDirs are directory names skipped at any depth.
	ExcludeDirs []string
	// ExcludeFiles are file names skipped at any depth, compared
	// case-insensitively.
	ExcludeFiles []string
	// IncludeDrafts keeps items marked draft.
	IncludeDrafts bool
}

// ItemError records a file that could not be turned into an Item.
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("content: %s: %v", e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// ScanResult is the outcome of one scan. Errors hold per-file failures; the
// files that loaded are still returned in Items.
type ScanResult struct {
	Items   []Item
	Errors  []error
	Skipped int
}

// Scanner discovers Markdown and HTML sources in a file system.
type Scanner struct {
	fsys   fs.FS
	opts   ScanOptions
	logger interfaces.Logger
}

// NewScanner builds a scanner over fsys. A nil logger disables logging.
func NewScanner(fsys fs.FS, opts ScanOptions, logger interfaces.Logger) *Scanner {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Scanner{fsys: fsys, opts: opts, logger: logger}
}

// Scan walks the tree in lexical order and loads every eligible file.
// Only a failure to walk the root is returned as an error.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	excludedDirs := toSet(s.opts.ExcludeDirs, false)
	excludedFiles := toSet(s.opts.ExcludeFiles, true)

	var result ScanResult
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == "." {
				return walkErr
			}
			result.Errors = append(result.Errors, &ItemError{Path: p, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := excludedDirs[d.Name()]; skip && p != "." {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := FormatFor(p); !ok {
			return nil
		}
		if _, skip := excludedFiles[strings.ToLower(d.Name())]; skip {
			s.logger.Debug("content.file.excluded", "item_path", p)
			return nil
		}

		item, err := s.load(p, d)
		if err != nil {
			result.Errors = append(result.Errors, &ItemError{Path: p, Err: err})
			s.logger.Warn("content.file.failed", "item_path", p, "error", err)
			return nil
		}
		if item.Draft && !s.opts.IncludeDrafts {
			result.Skipped++
			s.logger.Info("content.file.draft", "item_path", p)
			return nil
		}
		result.Items = append(result.Items, item)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("content: scan: %w", err)
	}

	s.logger.Debug("content.scan.completed", "items", len(result.Items), "errors", len(result.Errors))
	return result, nil
}

func (s *Scanner) load(p string, d fs.DirEntry) (Item, error) {
	data, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return Item{}, err
	}
	info, err := d.Info()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Item{}, err
	}
	item, err := Load(path.Clean(p), data, modTime(info))
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func modTime(info fs.FileInfo) (t time.Time) {
	if info == nil {
		return t
	}
	return info.ModTime()
}

func toSet(values []string, fold bool) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.Trim(value, "/"))
		if value == "" {
			continue
		}
		if fold {
			value = strings.ToLower(value)
		}
		set[value] = struct{}{}
	}
	return set
}
