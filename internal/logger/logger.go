package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is the minimum severity a record needs to be emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config selects level, format and destination for the process-wide logger.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

// state is the current logger configuration. Guarded by mu; rebuild() derives
// the slog.Logger from the other fields.
type state struct {
	level  Level
	format string
	out    io.Writer
	color  bool
	logger *slog.Logger
}

var (
	mu  sync.RWMutex
	cur state
)

func init() {
	cur = state{
		level:  LevelInfo,
		format: "text",
		out:    os.Stdout,
		color:  isTerminal(os.Stdout.Fd()),
	}
	cur.rebuild()
}

// rebuild derives the slog.Logger. Callers hold mu.
func (s *state) rebuild() {
	lv := new(slog.LevelVar)
	lv.Set(s.level.slogLevel())
	opts := &slog.HandlerOptions{Level: lv}

	if s.format == "json" {
		s.logger = slog.New(slog.NewJSONHandler(s.out, opts))
	} else {
		s.logger = slog.New(newTextHandler(s.out, opts, s.color))
	}
}

func parseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// Init applies the configuration. Called once at startup, after the config
// file is loaded.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		if cfg.Output != "" {
			cur.out = os.Stdout
			cur.color = isTerminal(os.Stdout.Fd())
		}
	case "stderr":
		cur.out = os.Stderr
		cur.color = isTerminal(os.Stderr.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		cur.out = f
		cur.color = false
	}

	if level, ok := parseLevel(cfg.Level); cfg.Level != "" && ok {
		cur.level = level
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "json" {
		cur.format = f
	}

	cur.rebuild()
	return nil
}

// InitWithWriter points the logger at an arbitrary writer. Used by tests.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	mu.Lock()
	cur.out = w
	cur.color = enableColor
	if lv, ok := parseLevel(level); level != "" && ok {
		cur.level = lv
	}
	if f := strings.ToLower(format); f == "text" || f == "json" {
		cur.format = f
	}
	cur.rebuild()
	mu.Unlock()
}

// SetLevel changes the minimum level at runtime. Invalid values are ignored.
func SetLevel(level string) {
	lv, ok := parseLevel(level)
	if !ok {
		return
	}
	mu.Lock()
	cur.level = lv
	cur.rebuild()
	mu.Unlock()
}

// SetFormat switches between text and json output. Invalid values are ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	mu.Lock()
	cur.format = format
	cur.rebuild()
	mu.Unlock()
}

func current() (*slog.Logger, Level) {
	mu.RLock()
	defer mu.RUnlock()
	return cur.logger, cur.level
}

// Debug logs at debug level with key/value pairs.
func Debug(msg string, args ...any) {
	if l, min := current(); min <= LevelDebug {
		l.Debug(msg, args...)
	}
}

// Info logs at info level with key/value pairs.
func Info(msg string, args ...any) {
	if l, min := current(); min <= LevelInfo {
		l.Info(msg, args...)
	}
}

// Warn logs at warn level with key/value pairs.
func Warn(msg string, args ...any) {
	if l, min := current(); min <= LevelWarn {
		l.Warn(msg, args...)
	}
}

// Error logs at error level with key/value pairs.
func Error(msg string, args ...any) {
	l, _ := current()
	l.Error(msg, args...)
}

// The Ctx variants prepend the request-scoped fields carried by the context
// (request ID, client IP, username, ...) before the caller's pairs.

func DebugCtx(ctx context.Context, msg string, args ...any) {
	if l, min := current(); min <= LevelDebug {
		l.Debug(msg, withContextFields(ctx, args)...)
	}
}

func InfoCtx(ctx context.Context, msg string, args ...any) {
	if l, min := current(); min <= LevelInfo {
		l.Info(msg, withContextFields(ctx, args)...)
	}
}

func WarnCtx(ctx context.Context, msg string, args ...any) {
	if l, min := current(); min <= LevelWarn {
		l.Warn(msg, withContextFields(ctx, args)...)
	}
}

func ErrorCtx(ctx context.Context, msg string, args ...any) {
	l, _ := current()
	l.Error(msg, withContextFields(ctx, args)...)
}

func withContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 10+len(args))
	if lc.RequestID != "" {
		out = append(out, KeyRequestID, lc.RequestID)
	}
	if lc.ClientIP != "" {
		out = append(out, KeyClientIP, lc.ClientIP)
	}
	if lc.Username != "" {
		out = append(out, KeyUsername, lc.Username)
	}
	if lc.Provider != "" {
		out = append(out, KeyProvider, lc.Provider)
	}
	if lc.Endpoint != "" {
		out = append(out, KeyEndpoint, lc.Endpoint)
	}
	return append(out, args...)
}

// With returns a slog.Logger carrying pre-bound attributes.
func With(args ...any) *slog.Logger {
	l, _ := current()
	return l.With(args...)
}

// Duration reports the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// Printf-style variants, for call sites without structured fields.

func Debugf(format string, v ...any) {
	if l, min := current(); min <= LevelDebug {
		l.Debug(fmt.Sprintf(format, v...))
	}
}

func Infof(format string, v ...any) {
	if l, min := current(); min <= LevelInfo {
		l.Info(fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...any) {
	if l, min := current(); min <= LevelWarn {
		l.Warn(fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...any) {
	l, _ := current()
	l.Error(fmt.Sprintf(format, v...))
}
