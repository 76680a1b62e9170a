package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/facette/natsort"
	"github.com/google/uuid"

	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/logging"
	"github.com/M-casado/watercolour-processing/media"
)

// ImageStore is the part of the catalogue store ingestion writes to.
type ImageStore interface {
	InsertImage(img database.NewImage) (int64, error)
}

// Thumbnailer produces the derived thumbnail of a newly recorded image.
type Thumbnailer interface {
	GenerateThumbnail(srcPath string, imageID int64) (string, error)
}

// Options configures an Ingester.
type Options struct {
	// Extensions filters candidate files by suffix, case-insensitively.
	// nil and empty both mean DefaultExtensions.
	Extensions      []string
	PipelineVersion string
	// Thumbnailer may be nil, in which case no thumbnails are made.
	Thumbnailer Thumbnailer
	Logger      *slog.Logger
}

// Summary counts what a run did.
type Summary struct {
	Scanned           int `json:"scanned"`
	Inserted          int `json:"inserted"`
	Duplicates        int `json:"duplicates"`
	TotalPaths        int `json:"total_paths"`
	Errors            int `json:"errors"`
	ThumbnailFailures int `json:"thumbnail_failures"`
}

// Ingester records image files in the catalogue. It is safe to re-run over
// inputs that were already ingested; known content is counted as duplicate.
type Ingester struct {
	store      ImageStore
	thumbs     Thumbnailer
	extensions map[string]bool
	version    string
	log        *slog.Logger
}

func New(store ImageStore, opts Options) *Ingester {
	return &Ingester{
		store:      store,
		thumbs:     opts.Thumbnailer,
		extensions: extensionSet(opts.Extensions),
		version:    opts.PipelineVersion,
		log:        logging.OrDiscard(opts.Logger).With("component", "ingest"),
	}
}

// run holds the state of a single Ingest call.
type run struct {
	*Ingester
	id      string
	log     *slog.Logger
	summary Summary
}

// Ingest walks every path, recording matching files. Files are processed
// directly, directories recursively; anything else counts as an error and is
// skipped. A storage failure other than a duplicate aborts the run and is
// returned together with the counts so far.
func (in *Ingester) Ingest(paths []string) (Summary, error) {
	id := uuid.NewString()
	r := &run{Ingester: in, id: id, log: in.log.With("run", id)}
	r.summary.TotalPaths = len(paths)
	r.log.Info("ingestion started", "paths", len(paths), "pipeline_version", in.version)

	for _, p := range paths {
		if err := r.ingestPath(p); err != nil {
			r.log.Error("ingestion aborted", "path", p, "error", err, "summary", r.summary)
			return r.summary, err
		}
	}

	r.log.Info("ingestion finished",
		"scanned", r.summary.Scanned,
		"inserted", r.summary.Inserted,
		"duplicates", r.summary.Duplicates,
		"errors", r.summary.Errors,
		"thumbnail_failures", r.summary.ThumbnailFailures)
	return r.summary, nil
}

func (r *run) ingestPath(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		r.summary.Errors++
		r.log.Warn("cannot resolve input path", "path", p, "error", err)
		return nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		r.summary.Errors++
		r.log.Warn("input path is neither a file nor a directory", "path", abs, "error", err)
		return nil
	}

	switch {
	case info.Mode().IsRegular():
		return r.ingestFile(abs)
	case info.IsDir():
		return r.walk(abs)
	default:
		r.summary.Errors++
		r.log.Warn("input path is neither a file nor a directory", "path", abs, "mode", info.Mode().String())
		return nil
	}
}

// walk visits dir depth first, in natural name order within each directory.
func (r *run) walk(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.summary.Errors++
		r.log.Warn("cannot read directory", "path", dir, "error", err)
		return nil
	}

	names := make([]string, 0, len(entries))
	kinds := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		kinds[e.Name()] = e
	}
	natsort.Sort(names)

	for _, name := range names {
		full := filepath.Join(dir, name)
		e := kinds[name]
		switch {
		case e.IsDir():
			if err := r.walk(full); err != nil {
				return err
			}
		case e.Type().IsRegular():
			if err := r.ingestFile(full); err != nil {
				return err
			}
		case e.Type()&fs.ModeSymlink != 0:
			if err := r.ingestLink(full); err != nil {
				return err
			}
		}
	}
	return nil
}

// ingestLink ingests a symlink found while walking when it points at a regular
// file. Links to directories are not followed; broken links count as errors.
func (r *run) ingestLink(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		r.summary.Errors++
		r.log.Warn("cannot resolve symlink", "path", path, "error", err)
		return nil
	}
	if !info.Mode().IsRegular() {
		r.log.Debug("not following symlink", "path", path, "mode", info.Mode().String())
		return nil
	}
	return r.ingestFile(path)
}

func (r *run) ingestFile(path string) error {
	if !matchesExtension(path, r.extensions) {
		return nil
	}
	r.summary.Scanned++
	order := r.summary.Scanned

	checksum, err := media.Fingerprint(path)
	if err != nil {
		r.summary.Errors++
		r.log.Warn("cannot fingerprint file", "path", path, "error", err)
		return nil
	}

	img := database.NewImage{
		Filename:     filepath.Base(path),
		FilePath:     path,
		MD5Checksum:  checksum,
		IsRaw:        true,
		OrderInBatch: &order,
	}
	if r.version != "" {
		img.PipelineVersion = &r.version
	}
	if taken := media.CaptureTime(path); taken != "" {
		img.DateTaken = &taken
	}

	id, err := r.store.InsertImage(img)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			r.summary.Duplicates++
			r.log.Debug("skipping duplicate", "path", path, "checksum", checksum)
			return nil
		}
		return fmt.Errorf("failed to record %s: %w", path, err)
	}
	r.summary.Inserted++
	r.log.Debug("recorded image", "image_id", id, "path", path)

	if r.thumbs != nil {
		if _, err := r.thumbs.GenerateThumbnail(path, id); err != nil {
			r.summary.ThumbnailFailures++
			r.log.Warn("thumbnail generation failed", "image_id", id, "path", path, "error", err)
		}
	}
	return nil
}
