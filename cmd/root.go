// Package cmd implements the watercolour command line.
package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/M-casado/watercolour-processing/config"
	"github.com/M-casado/watercolour-processing/logging"
)

// app carries what every subcommand shares once the root command has run its
// setup.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	closer io.Closer
}

func (a *app) setup(console io.Writer, level string) error {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if level == "" {
		level = cfg.LogLevel
	}

	logger, closer, err := logging.New(logging.Config{
		Dir:     cfg.LogDir,
		Level:   level,
		Console: console,
	})
	if err != nil {
		return err
	}
	a.cfg, a.log, a.closer = cfg, logger, closer

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", envErr)
	}
	for _, w := range cfg.Warnings {
		logger.Warn("configuration", "warning", w)
	}
	logger.Debug("configuration loaded", "base_dir", cfg.BaseDir, "database", cfg.DatabasePath)
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

func newRootCommand(a *app) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "watercolour",
		Short:         "Catalogue of watercolour photographs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level: debug, info, warn, error (default from LOG_LEVEL)")

	passwordCmd := hashPasswordCommand()
	rootCmd.AddCommand(ingestCommand(a), serveCommand(a), passwordCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == passwordCmd.Name() {
			return nil
		}
		return a.setup(cmd.ErrOrStderr(), logLevel)
	}

	return rootCmd
}

// Execute runs the command line until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()

	rootCmd := newRootCommand(a)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if a.log != nil {
			a.log.Error("command failed", "command", rootCmd.Name(), "error", err)
		} else {
			rootCmd.PrintErrln("Error:", err)
		}
	}
	return err
}
