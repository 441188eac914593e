package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// Template names every site needs.
const (
	ArticleTemplate = "article.html"
	IndexTemplate   = "index.html"
)

// ErrTemplateDirMissing is returned when a configured override directory
// does not exist.
var ErrTemplateDirMissing = errors.New("templates: template directory not found")

//go:embed defaults/*.html
var defaults embed.FS

// Options configures the renderer.
type Options struct {
	// Dir holds optional overrides; files there shadow the defaults by name.
	Dir string
	// Required turns a missing Dir into ErrTemplateDirMissing.
	Required bool
	Logger   interfaces.Logger
}

// Renderer renders pongo2 templates from an override directory layered over
// the embedded defaults.
type Renderer struct {
	set    *pongo2.TemplateSet
	mu     sync.Mutex
	logger interfaces.Logger
}

var _ interfaces.TemplateRenderer = (*Renderer)(nil)

// New builds a renderer. Unless opts.Required is set, a missing override
// directory only logs and falls back to the defaults.
func New(opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	embedded, err := fs.Sub(defaults, "defaults")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	layers := []fs.FS{embedded}

	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			layers = append([]fs.FS{os.DirFS(dir)}, layers...)
			logger.Debug("templates.override.enabled", "dir", dir)
		case opts.Required:
			return nil, fmt.Errorf("%w: %s", ErrTemplateDirMissing, dir)
		default:
			logger.Debug("templates.override.absent", "dir", dir)
		}
	}

	return NewFromFS(logger, layers...), nil
}

// NewFromFS builds a renderer over layers; earlier layers win.
func NewFromFS(logger interfaces.Logger, layers ...fs.FS) *Renderer {
	if logger == nil {
		logger = logging.NoOp()
	}
	set := pongo2.NewSet("garden", &layeredLoader{layers: layers})
	return &Renderer{set: set, logger: logger}
}

// RenderTemplate renders the named template. When out is supplied the
// output is streamed there and the returned string is empty.
func (r *Renderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	r.mu.Lock()
	tpl, err := r.set.FromCache(name)
	r.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("templates: load %s: %w", name, err)
	}
	return execute(tpl, data, out...)
}

// RenderString renders an inline template with the same globals and loader.
func (r *Renderer) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tpl, err := r.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("templates: compile inline: %w", err)
	}
	return execute(tpl, data, out...)
}

// GlobalContext merges data into the values every template sees.
func (r *Renderer) GlobalContext(data any) error {
	ctx, err := toContext(data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set.Globals == nil {
		r.set.Globals = pongo2.Context{}
	}
	r.set.Globals.Update(ctx)
	return nil
}

// Safe marks value as pre-rendered HTML so autoescaping leaves it alone.
func Safe(value string) *pongo2.Value {
	return pongo2.AsSafeValue(value)
}

func execute(tpl *pongo2.Template, data any, out ...io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", err
	}
	if len(out) > 0 && out[0] != nil {
		if err := tpl.ExecuteWriter(ctx, out[0]); err != nil {
			return "", fmt.Errorf("templates: execute: %w", err)
		}
		return "", nil
	}
	rendered, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("templates: execute: %w", err)
	}
	return rendered, nil
}

func toContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return v, nil
	case map[string]any:
		return pongo2.Context(v), nil
	default:
		return nil, fmt.Errorf("templates: unsupported data type %T", data)
	}
}

// layeredLoader resolves template names against each layer in turn.
type layeredLoader struct {
	layers []fs.FS
}

func (l *layeredLoader) Abs(_, name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

func (l *layeredLoader) Get(name string) (io.Reader, error) {
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, name)
		if err == nil {
			return bytes.NewReader(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("template %q: %w", name, fs.ErrNotExist)
}
