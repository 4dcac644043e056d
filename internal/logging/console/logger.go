// Package console is a dependency-free key=value logger for the CLI and for
// tests that assert on log output.
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

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// Level is the severity of an entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel accepts the level names used in configuration files. Blank
// input maps to info.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "", "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// Options configures the provider. The zero value writes INFO and above to
// stderr.
type Options struct {
	Writer io.Writer
	Clock  func() time.Time
	Level  *Level
	// TimeLayout defaults to RFC 3339 with nanoseconds.
	TimeLayout string
}

// Provider hands out loggers sharing one writer.
type Provider struct {
	out    io.Writer
	clock  func() time.Time
	level  Level
	layout string
	mu     sync.Mutex
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds a console provider.
func NewProvider(opts Options) *Provider {
	p := &Provider{
		out:    opts.Writer,
		clock:  opts.Clock,
		level:  LevelInfo,
		layout: opts.TimeLayout,
	}
	if opts.Level != nil {
		p.level = *opts.Level
	}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.layout == "" {
		p.layout = time.RFC3339Nano
	}
	return p
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	return &Logger{provider: p, fields: map[string]any{"logger": name}}
}

func (p *Provider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Logging is best effort.
	_, _ = io.WriteString(p.out, line)
}

// Logger writes one line per entry.
type Logger struct {
	provider *Provider
	fields   map[string]any
	ctx      context.Context
}

var (
	_ interfaces.Logger       = (*Logger)(nil)
	_ interfaces.FieldsLogger = (*Logger)(nil)
)

func (l *Logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *Logger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *Logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &Logger{provider: l.provider, fields: merged, ctx: l.ctx}
}

func (l *Logger) WithContext(ctx context.Context) interfaces.Logger {
	return &Logger{provider: l.provider, fields: l.fields, ctx: ctx}
}

func (l *Logger) log(level Level, msg string, args []any) {
	if l.provider == nil || level < l.provider.level {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	appendArgs(fields, args)

	var b strings.Builder
	b.WriteString(l.provider.clock().UTC().Format(l.provider.layout))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(render(fields[key]))
	}
	b.WriteByte('\n')
	l.provider.write(b.String())
}

// appendArgs reads key/value pairs. Values without a usable string key are
// stored positionally as arg_N.
func appendArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["arg_"+strconv.Itoa(i)] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg_" + strconv.Itoa(i+1)
		}
		fields[key] = args[i+1]
	}
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
