package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log records go.
type Config struct {
	// Dir receives watercolour_YYYY-MM-DD.log. Empty disables file output.
	Dir string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Console receives the human-readable stream; nil means os.Stderr.
	Console io.Writer
	// MaxBackups is how many rotated files are kept. Defaults to 20.
	MaxBackups int
	// Now is used to date the log file name. Defaults to time.Now.
	Now func() time.Time
}

const defaultMaxBackups = 20

// New builds a logger that writes text to the console and JSON to a rotating
// file. The returned closer flushes and closes the file.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(console, opts)}

	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", cfg.Dir, err)
		}
		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}
		backups := cfg.MaxBackups
		if backups <= 0 {
			backups = defaultMaxBackups
		}
		file := &lumberjack.Logger{
			Filename:   FilePath(cfg.Dir, now()),
			MaxSize:    10,
			MaxBackups: backups,
		}
		// the file always records debug so a run can be reconstructed afterwards
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file
	}

	return slog.New(newMultiHandler(handlers...)), closer, nil
}

// FilePath is the log file used for a run started at t.
func FilePath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("watercolour_%s.log", t.Format("2006-01-02")))
}

// ParseLevel maps a level name onto slog; empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Discard returns a logger that drops everything. Components fall back to it
// when constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
