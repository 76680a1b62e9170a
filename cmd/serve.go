package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/M-casado/watercolour-processing/catalog"
	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/handlers"
	"github.com/M-casado/watercolour-processing/media"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from LISTEN_ADDR)")

	return cmd
}

// openStore opens the catalogue database, creating it from the configured or
// bundled schema when it does not exist yet.
func (a *app) openStore() (*database.Store, error) {
	schema := database.DefaultSchema
	if a.cfg.SchemaPath != "" {
		s, err := database.ReadSchema(a.cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		schema = s
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return database.Open(a.cfg.DatabasePath, schema, a.log)
}

func (a *app) serve(ctx context.Context, addr string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	db, err := store.Gorm(a.log)
	if err != nil {
		return err
	}

	thumbStore, err := media.NewThumbnailStorage(a.cfg.ThumbnailsPath, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize thumbnail storage: %w", err)
	}
	thumbs := media.NewProcessor(thumbStore, a.cfg.ThumbnailMaxSize, a.log)

	cfg := a.cfg
	router := handlers.NewRouter(handlers.Deps{
		Store:      store,
		DB:         db,
		Catalog:    catalog.NewService(store, thumbs, a.log),
		Thumbnails: thumbs,
		Config:     &cfg,
		Logger:     a.log,
	})

	// ingestion runs inside the request, so writes get no deadline
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("admin API listening", "addr", addr, "database", a.cfg.DatabasePath, "auth", a.cfg.AdminPasswordHash != "")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin API stopped: %w", err)
	case <-ctx.Done():
		a.log.Info("shutting down admin API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
