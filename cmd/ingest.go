package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/M-casado/watercolour-processing/ingest"
)

type ingestFlags struct {
	db              string
	schema          string
	extensions      []string
	pipelineVersion string
	thumbnails      string
	noThumbnails    bool
}

func ingestCommand(a *app) *cobra.Command {
	var f ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Record raw captures found under the given files and directories",
		Long: "Walks each path, fingerprints every file with a matching extension and records " +
			"new captures. Files already recorded are counted as duplicates. Without paths the " +
			"configured raw data directory is ingested.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			rc := ingest.RunConfig{
				Paths:            args,
				DatabasePath:     firstNonEmpty(f.db, cfg.DatabasePath),
				SchemaPath:       firstNonEmpty(f.schema, cfg.SchemaPath),
				Extensions:       cfg.Extensions,
				PipelineVersion:  firstNonEmpty(f.pipelineVersion, cfg.PipelineVersion),
				ThumbnailsPath:   firstNonEmpty(f.thumbnails, cfg.ThumbnailsPath),
				ThumbnailMaxSize: cfg.ThumbnailMaxSize,
				Logger:           a.log,
			}
			if cmd.Flags().Changed("extensions") {
				rc.Extensions = f.extensions
			}
			if f.noThumbnails {
				rc.ThumbnailsPath = ""
			}
			if len(rc.Paths) == 0 {
				rc.Paths = []string{cfg.RawDataPath}
			}

			summary, runErr := ingest.Run(rc)
			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return runErr
		},
	}

	cmd.Flags().StringVar(&f.db, "db", "", "Path to the SQLite database (default from DATABASE_PATH)")
	cmd.Flags().StringVar(&f.schema, "schema", "", "Schema file applied when the database is new (default: bundled schema)")
	cmd.Flags().StringSliceVar(&f.extensions, "extensions", nil, "Comma-separated file extensions to ingest (default .nef,.jpg,.jpeg,.png,.gif,.bmp,.tif,.tiff)")
	cmd.Flags().StringVar(&f.pipelineVersion, "pipeline-version", "", "Pipeline version recorded on new images (default from PIPELINE_VERSION)")
	cmd.Flags().StringVar(&f.thumbnails, "thumbnails", "", "Directory for generated thumbnails (default from THUMBNAILS_PATH)")
	cmd.Flags().BoolVar(&f.noThumbnails, "no-thumbnails", false, "Skip thumbnail generation")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
