package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aoideee/libraryhub/internal/config"
	"github.com/aoideee/libraryhub/internal/data"
	"github.com/aoideee/libraryhub/internal/storage"
)

// session holds what the subcommands share once the root has opened storage.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend storage.Backend
	store   *data.Store
	models  data.Models

	flagConfig   string
	flagBackend  string
	flagPath     string
	flagRecovery string
	flagNoColor  bool
	flagVerbose  bool
}

func newRootCmd() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:   "librarian",
		Short: "Operate on the library data store",
		Long: `librarian works directly against the storage backend used by the API
server. It can issue REST-shaped calls through the in-process dispatcher,
repair or clean corrupted documents, sweep overdue loans and export data.

Settings come from the same LIBRARY_* environment variables and YAML file as
the server; the flags below override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&s.flagConfig, "config", "", "Config file path (default: $LIBRARY_CONFIG)")
	root.PersistentFlags().StringVar(&s.flagBackend, "backend", "", "Storage backend (memory|file|sqlite|postgres|redis|minio)")
	root.PersistentFlags().StringVar(&s.flagPath, "path", "", "Directory (file) or database file (sqlite)")
	root.PersistentFlags().StringVar(&s.flagRecovery, "recovery", "", "Cleanup mode (reset|isolate)")
	root.PersistentFlags().BoolVar(&s.flagNoColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVarP(&s.flagVerbose, "verbose", "v", false, "Log repair activity to stderr")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if s.flagNoColor {
			color.NoColor = true
		}
		return s.open(cmd.Context(), cmd.ErrOrStderr())
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return s.close()
	}

	root.AddCommand(
		newCallCmd(s),
		newRepairCmd(s),
		newCleanupCmd(s),
		newOverdueCmd(s),
		newExportCmd(s),
		newConfigCmd(s),
	)
	return root
}

func (s *session) open(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(s.flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if s.flagBackend != "" {
		cfg.Storage.Backend = s.flagBackend
	}
	if s.flagPath != "" {
		cfg.Storage.Path = s.flagPath
	}
	if s.flagRecovery != "" {
		cfg.Storage.Recovery = s.flagRecovery
	}
	s.cfg = cfg

	level := "error"
	if s.flagVerbose {
		level = "debug"
	}
	s.logger = config.NewLogger(stderr, "development", level)

	recovery, err := data.ParseRecoveryMode(cfg.Storage.Recovery)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.backend, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	s.store = data.NewStore(s.backend, data.Options{Logger: s.logger, Recovery: recovery})
	s.models = data.NewModels(s.store)
	return nil
}

func (s *session) close() error {
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}

// ok prints a green success line.
func ok(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, color.YellowString("!"), fmt.Sprintf(format, a...))
}
