package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/logging"
	"github.com/M-casado/watercolour-processing/media"
)

// RunConfig describes a standalone ingestion run.
type RunConfig struct {
	Paths        []string
	DatabasePath string
	// SchemaPath overrides the embedded schema when set.
	SchemaPath      string
	Extensions      []string
	PipelineVersion string
	// ThumbnailsPath enables thumbnail generation when set.
	ThumbnailsPath   string
	ThumbnailMaxSize int
	Logger           *slog.Logger
}

// Run opens the store, ingests cfg.Paths and closes the store again, on
// every return path.
func Run(cfg RunConfig) (Summary, error) {
	logger := logging.OrDiscard(cfg.Logger)

	schema := database.DefaultSchema
	if cfg.SchemaPath != "" {
		s, err := database.ReadSchema(cfg.SchemaPath)
		if err != nil {
			return Summary{}, err
		}
		schema = s
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	store, err := database.Open(cfg.DatabasePath, schema, logger)
	if err != nil {
		return Summary{}, err
	}
	defer store.Close()

	opts := Options{
		Extensions:      cfg.Extensions,
		PipelineVersion: cfg.PipelineVersion,
		Logger:          logger,
	}
	if cfg.ThumbnailsPath != "" {
		thumbStore, err := media.NewThumbnailStorage(cfg.ThumbnailsPath, logger)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to initialize thumbnail storage: %w", err)
		}
		opts.Thumbnailer = media.NewProcessor(thumbStore, cfg.ThumbnailMaxSize, logger)
	}

	return New(store, opts).Ingest(cfg.Paths)
}
