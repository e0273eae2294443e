// Package log is a thin structured-logging wrapper over the standard
// library's log/slog, trimmed down from go-ethereum's log package to the
// handful of levels the resize engine and quiescence primitive need to
// narrate, with a terminal handler that colorizes level and key=value pairs
// using github.com/fatih/color over a github.com/mattn/go-colorable writer
// (so colors still work on Windows consoles), exactly the way go-ethereum's
// own terminal handler does.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

// Level mirrors slog.Level but with the table's own vocabulary; Trace sits
// below slog's Debug.
type Level int

const (
	LevelTrace Level = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level { return slog.Level((l - LevelInfo) * 4) }

var levelName = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
}

var levelColor = map[Level]*color.Color{
	LevelTrace: color.New(color.FgHiBlack),
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// Logger is the interface the table, the resize engine, and the quiescence
// primitive log through. Callers may supply their own implementation;
// Discard is the zero-configuration default so the library stays silent.
type Logger interface {
	Trace(msg string, kv ...any)
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

// Discard is a Logger that drops everything. It is the default when no
// Logger is configured.
var Discard Logger = discard{}

type discard struct{}

func (discard) Trace(string, ...any) {}
func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
func (discard) With(...any) Logger   { return discard{} }

// NewTerminalLogger returns a Logger that writes colorized, aligned
// key=value lines to w (or, if w is a terminal-capable *os.File, through
// go-colorable so ANSI codes render on Windows too) at minLevel and above.
func NewTerminalLogger(w io.Writer, minLevel Level) Logger {
	if f, ok := w.(*os.File); ok {
		w = colorable.NewColorable(f)
	}
	return &terminalLogger{w: w, min: minLevel}
}

type terminalLogger struct {
	w    io.Writer
	min  Level
	ctx  []any
}

func (l *terminalLogger) log(level Level, msg string, kv ...any) {
	if level < l.min {
		return
	}
	c := levelColor[level]
	ts := time.Now().Format("01-02|15:04:05.000")
	line := fmt.Sprintf("%s[%s] %s", c.Sprint(levelName[level]), ts, msg)
	all := append(append([]any{}, l.ctx...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		line += fmt.Sprintf(" %s=%v", all[i], all[i+1])
	}
	fmt.Fprintln(l.w, line)
}

func (l *terminalLogger) Trace(msg string, kv ...any) { l.log(LevelTrace, msg, kv...) }
func (l *terminalLogger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv...) }
func (l *terminalLogger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv...) }
func (l *terminalLogger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv...) }
func (l *terminalLogger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv...) }

func (l *terminalLogger) With(kv ...any) Logger {
	return &terminalLogger{w: l.w, min: l.min, ctx: append(append([]any{}, l.ctx...), kv...)}
}

// NewJSONLogger returns a Logger backed by log/slog's JSON handler, for
// ingestion by log pipelines instead of terminals.
func NewJSONLogger(w io.Writer) Logger {
	return &slogLogger{l: slog.New(slog.NewJSONHandler(w, nil))}
}

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) Trace(msg string, kv ...any) {
	s.l.Log(context.Background(), LevelTrace.slog(), msg, kv...)
}
func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }
func (s *slogLogger) With(kv ...any) Logger       { return &slogLogger{l: s.l.With(kv...)} }

// sortedKeys is used by tests to assert on deterministic key ordering.
func sortedKeys(kv []any) []string {
	keys := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
