// Package logger provides the leveled logger shared by the target. It is a
// thin layer over the standard log package: every line is prefixed with a
// UTC timestamp of constant width and a level tag, and lines above the
// configured verbosity are dropped.
//
// All output goes to the writer given at construction (stderr in the CLI);
// stdout is reserved for emitted state.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

const RFC3339UsecTz0 = "2006-01-02T15:04:05.000000Z07:00"

// Logger is the logging interface used across packages.
type Logger interface {
	Printf(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	// WithPrefix returns a Logger with the same configuration whose lines
	// carry the given prefix.
	WithPrefix(prefix string) Logger
}

const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func LevelPrefix(level int) string {
	return [...]string{"ERROR: ", "WARN:  ", "INFO:  ", "DEBUG: "}[level]
}

// ParseLevel maps a config value to a level. Empty means info.
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

var StderrLogger Logger = NewStandardLogger(os.Stderr)

// NopLogger discards everything.
var NopLogger Logger = &nopLogger{}

var _ Logger = &nopLogger{}

type nopLogger struct{}

func (n *nopLogger) Printf(format string, v ...any) {}
func (n *nopLogger) Debugf(format string, v ...any) {}
func (n *nopLogger) Infof(format string, v ...any)  {}
func (n *nopLogger) Warnf(format string, v ...any)  {}
func (n *nopLogger) Errorf(format string, v ...any) {}
func (n *nopLogger) WithPrefix(prefix string) Logger {
	return n
}

// standardLogger is a basic implementation of Logger based on log.Logger.
type standardLogger struct {
	logger    *log.Logger
	verbosity int
	prefix    string
	w         io.Writer
}

// formatLog writes in UTC with constant width and microsecond resolution.
type formatLog struct {
	w io.Writer
}

func (fl formatLog) Write(b []byte) (int, error) {
	return fmt.Fprintf(fl.w, "%v %v", time.Now().UTC().Format(RFC3339UsecTz0), string(b))
}

func newStandardLogger(w io.Writer, verbosity int, prefix string) *standardLogger {
	l := log.New(formatLog{w: w}, "", 0)
	return &standardLogger{
		logger:    l,
		verbosity: verbosity,
		prefix:    prefix,
		w:         w,
	}
}

func NewStandardLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelInfo, "")
}

func NewVerboseLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelDebug, "")
}

// NewLevelLogger returns a logger that drops lines above level.
func NewLevelLogger(w io.Writer, level int) Logger {
	return newStandardLogger(w, level, "")
}

func (s *standardLogger) printf(level int, format string, v ...any) {
	if level > s.verbosity {
		return
	}
	s.logger.Printf(LevelPrefix(level)+s.prefix+format, v...)
}

func (s *standardLogger) Printf(format string, v ...any) {
	s.printf(LevelInfo, format, v...)
}

func (s *standardLogger) Debugf(format string, v ...any) {
	s.printf(LevelDebug, format, v...)
}

func (s *standardLogger) Infof(format string, v ...any) {
	s.printf(LevelInfo, format, v...)
}

func (s *standardLogger) Warnf(format string, v ...any) {
	s.printf(LevelWarn, format, v...)
}

func (s *standardLogger) Errorf(format string, v ...any) {
	s.printf(LevelError, format, v...)
}

func (s *standardLogger) WithPrefix(prefix string) Logger {
	return newStandardLogger(s.w, s.verbosity, s.prefix+prefix)
}

// Logfer is a thing that has only a Logf() method, like testing.T.
type Logfer interface {
	Logf(format string, v ...any)
}

// LogfLogger wraps a Logfer so tests can route logs through t.Logf.
type LogfLogger struct {
	wrapped Logfer
	prefix  string
}

func NewLogfLogger(l Logfer) *LogfLogger {
	return &LogfLogger{wrapped: l}
}

func (ll *LogfLogger) Printf(format string, v ...any) { ll.wrapped.Logf(ll.prefix+format, v...) }
func (ll *LogfLogger) Debugf(format string, v ...any) { ll.wrapped.Logf(ll.prefix+format, v...) }
func (ll *LogfLogger) Infof(format string, v ...any)  { ll.wrapped.Logf(ll.prefix+format, v...) }
func (ll *LogfLogger) Warnf(format string, v ...any)  { ll.wrapped.Logf(ll.prefix+format, v...) }
func (ll *LogfLogger) Errorf(format string, v ...any) { ll.wrapped.Logf(ll.prefix+format, v...) }

func (ll *LogfLogger) WithPrefix(prefix string) Logger {
	return &LogfLogger{wrapped: ll.wrapped, prefix: ll.prefix + prefix}
}
