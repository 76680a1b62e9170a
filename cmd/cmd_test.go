package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/M-casado/watercolour-processing/ingest"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	root := newRootCommand(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setBaseDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("WATERCOLOUR_BASE_DIR", base)
	for _, key := range []string{"DATABASE_PATH", "SCHEMA_PATH", "RAW_DATA_PATH", "THUMBNAILS_PATH", "LOG_DIR", "INGEST_EXTENSIONS"} {
		t.Setenv(key, "")
	}
	return base
}

func TestIngestCommand(t *testing.T) {
	base := setBaseDir(t)
	raw := filepath.Join(base, "data", "raw")
	writePNG(t, filepath.Join(raw, "DSC_0001.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(raw, "roll2", "DSC_0002.png"), color.NRGBA{G: 255, A: 255})

	out, err := execute(t, "", "ingest")
	require.NoError(t, err)
	var summary ingest.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, ingest.Summary{Scanned: 2, Inserted: 2, TotalPaths: 1}, summary)

	assert.FileExists(t, filepath.Join(base, "data", "watercolours.db"))
	assert.FileExists(t, filepath.Join(base, "data", "thumbnails", "1.png"))

	out, err = execute(t, "", "ingest", raw, "--no-thumbnails")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, ingest.Summary{Scanned: 2, Duplicates: 2, TotalPaths: 1}, summary)
}

func TestIngestCommandFlags(t *testing.T) {
	base := setBaseDir(t)
	raw := filepath.Join(base, "captures")
	writePNG(t, filepath.Join(raw, "a.png"), color.NRGBA{B: 255, A: 255})
	db := filepath.Join(base, "elsewhere", "catalogue.db")

	out, err := execute(t, "", "ingest", raw, "--db", db, "--extensions", ".nef,.tif", "--no-thumbnails")
	require.NoError(t, err)
	var summary ingest.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, 0, summary.Scanned)
	assert.FileExists(t, db)

	_, err = execute(t, "", "ingest", raw, "--schema", filepath.Join(base, "missing.sql"))
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "s3cret\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = execute(t, "\n", "hash-password")
	assert.Error(t, err)
}
