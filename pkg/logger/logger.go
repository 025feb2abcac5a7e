// Package logger is the process-wide logger behind every snipmark command.
//
// Commands configure it once from the global flags and then log through the
// package-level helpers. Output always goes to stderr so validation reports
// and JSON results on stdout stay machine-readable.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level controls which messages a logger emits.
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a --log-level flag value to a Level. Unknown values fall
// back to InfoLevel rather than failing the command.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config selects the output shape of the shared logger.
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	NoOp      bool
}

// Logger writes structured log lines to a single destination. Snippet
// validation runs workers concurrently, so every write is serialized.
type Logger struct {
	mu  sync.Mutex
	cfg Config
	out io.Writer
}

var defaultLogger *Logger

// Initialize replaces the shared logger. Call it once, before the first
// command runs; the helpers fall back to bare stderr until then.
func Initialize(cfg Config) error {
	defaultLogger = &Logger{cfg: cfg, out: os.Stderr}
	return nil
}

// SetOutput redirects the shared logger, mainly so tests can capture lines.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.out = w
}

// Field attaches a key/value pair to a log line.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Err wraps an error under the conventional "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// record is the JSON wire form of one log line.
type record struct {
	Time      string                 `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	NoOp      bool                   `json:"no_op,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiFaint  = "\x1b[2m"
)

func levelColor(l Level) string {
	switch l {
	case TraceLevel:
		return ansiFaint
	case DebugLevel:
		return ansiCyan
	case WarnLevel:
		return ansiYellow
	case ErrorLevel:
		return ansiRed
	default:
		return ansiGreen
	}
}

func (l *Logger) log(level Level, msg string, fields ...Field) {
	if l == nil {
		// Initialize has not run yet. Keep warnings and errors visible
		// rather than losing them.
		if level >= WarnLevel {
			fmt.Fprintf(os.Stderr, "snipmark %s: %s\n", level, msg)
		}
		return
	}
	if level < l.cfg.Level {
		return
	}

	rec := record{
		Time:      time.Now().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Component: l.cfg.Component,
		NoOp:      l.cfg.NoOp,
	}
	// Caller info only when someone asked for a verbose run; resolving it
	// on every line is not worth it at info and above.
	if l.cfg.Level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(2); ok {
			short := file
			if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
				short = file[idx+1:]
			}
			rec.Caller = fmt.Sprintf("%s:%d", short, line)
		}
	}
	if len(fields) > 0 {
		rec.Fields = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			rec.Fields[f.Key] = f.Value
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.JSON {
		if data, err := json.Marshal(rec); err == nil {
			fmt.Fprintln(l.out, string(data))
		}
		return
	}
	fmt.Fprintln(l.out, l.pretty(level, rec, fields))
}

// pretty renders one human-facing line:
//
//	15:04:05 WARN  snipmark [no-op] message key=value (file.go:42)
func (l *Logger) pretty(level Level, rec record, fields []Field) string {
	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05"))
	b.WriteByte(' ')

	tag := fmt.Sprintf("%-5s", strings.ToUpper(level.String()))
	if l.cfg.UseColor {
		tag = levelColor(level) + tag + ansiReset
	}
	b.WriteString(tag)

	if l.cfg.Component != "" {
		b.WriteByte(' ')
		b.WriteString(l.cfg.Component)
	}
	if l.cfg.NoOp {
		b.WriteString(" [no-op]")
	}
	b.WriteByte(' ')
	b.WriteString(rec.Message)

	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	if rec.Caller != "" {
		b.WriteString(" (")
		b.WriteString(rec.Caller)
		b.WriteByte(')')
	}
	return b.String()
}

// Trace logs at TraceLevel through the shared logger.
func Trace(msg string, fields ...Field) { defaultLogger.log(TraceLevel, msg, fields...) }

// Debug logs at DebugLevel through the shared logger.
func Debug(msg string, fields ...Field) { defaultLogger.log(DebugLevel, msg, fields...) }

// Info logs at InfoLevel through the shared logger.
func Info(msg string, fields ...Field) { defaultLogger.log(InfoLevel, msg, fields...) }

// Warn logs at WarnLevel through the shared logger.
func Warn(msg string, fields ...Field) { defaultLogger.log(WarnLevel, msg, fields...) }

// Error logs at ErrorLevel through the shared logger.
func Error(msg string, fields ...Field) { defaultLogger.log(ErrorLevel, msg, fields...) }
