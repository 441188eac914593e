// Package console writes build logs as single key=value lines, one entry per
// line, optionally with coloured level labels for terminals.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-garden/internal/logging"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelLabels = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

var levelColors = [...]lipgloss.Color{"8", "8", "12", "11", "9", "9"}

func (l Level) String() string {
	if int(l) < len(levelLabels) {
		return levelLabels[l]
	}
	return levelLabels[LevelInfo]
}

// ParseLevel maps a configuration string onto a Level. Unknown values fall
// back to LevelInfo.
func ParseLevel(value string) Level {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "WARNING" {
		return LevelWarn
	}
	if i := slices.Index(levelLabels[:], value); i >= 0 {
		return Level(i)
	}
	return LevelInfo
}

// Options configures the provider. The zero value writes INFO and above to
// stdout without colour.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
	// Color styles level labels with ANSI colours.
	Color bool
}

type provider struct {
	out    io.Writer
	now    func() time.Time
	min    Level
	color  bool
	styles [len(levelLabels)]lipgloss.Style
	mu     sync.Mutex
}

// NewProvider returns a provider whose loggers share one writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{out: opts.Writer, now: opts.TimeFunc, min: LevelInfo, color: opts.Color}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.MinLevel != nil {
		p.min = *opts.MinLevel
	}
	for i, c := range levelColors {
		p.styles[i] = lipgloss.NewStyle().Foreground(c).Bold(Level(i) >= LevelWarn)
	}
	return p
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &logger{p: p, name: name}
}

func (p *provider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// a failing writer must not fail the build
	_, _ = io.WriteString(p.out, line)
}

func (p *provider) label(level Level) string {
	text := fmt.Sprintf("%-5s", level)
	if !p.color || int(level) >= len(p.styles) {
		return text
	}
	return p.styles[level].Render(text)
}

type logger struct {
	p      *provider
	name   string
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	next := *l
	next.fields = maps.Clone(l.fields)
	if next.fields == nil {
		next.fields = make(map[string]any, len(fields))
	}
	maps.Copy(next.fields, fields)
	return &next
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	next := *l
	next.ctx = ctx
	return &next
}

func (l *logger) log(level Level, msg string, args []any) {
	if level < l.p.min {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	addArgs(fields, args)
	// the module field repeats the logger name
	if fields["module"] == l.name {
		delete(fields, "module")
	}

	var b strings.Builder
	b.WriteString(l.p.now().UTC().Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(l.p.label(level))
	if l.name != "" {
		b.WriteString(" [" + l.name + "]")
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		if logging.IsSecretKey(key) {
			b.WriteString(logging.Redacted)
			continue
		}
		b.WriteString(formatValue(fields[key]))
	}
	b.WriteByte('\n')
	l.p.write(b.String())
}

// addArgs folds alternating key/value args into fields. A dangling value or
// a non-string key is stored under arg_N.
func addArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" || i+1 == len(args) {
			key = "arg_" + strconv.Itoa(i/2)
		}
		if i+1 == len(args) {
			fields[key] = args[i]
			return
		}
		fields[key] = args[i+1]
	}
}

func formatValue(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		s = v
	case time.Time:
		s = v.UTC().Format(time.RFC3339)
	case error:
		s = v.Error()
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
