package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	day := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	log, closer, err := New(Config{Dir: dir, Console: &console, Now: func() time.Time { return day }})
	require.NoError(t, err)

	log.With("component", "test").Info("hello", "n", 1)
	log.Debug("only in file")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "hello")
	assert.Contains(t, console.String(), "component=test")
	assert.NotContains(t, console.String(), "only in file")

	b, err := os.ReadFile(filepath.Join(dir, "watercolour_2024-03-09.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.Contains(t, string(b), `"component":"test"`)
	assert.Contains(t, string(b), "only in file")
}

func TestNewWithoutDir(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Config{Console: &console, Level: "warn"})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, console.String(), "dropped")
	assert.Contains(t, console.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g := NewGormLogger(l, time.Millisecond)
	ctx := context.Background()

	g.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Contains(t, buf.String(), "sql query")

	buf.Reset()
	g.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 2", 0 }, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "query error")

	buf.Reset()
	g.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 3", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "query error")

	buf.Reset()
	g.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 4", 0 }, nil)
	assert.Contains(t, buf.String(), "slow query")
}
