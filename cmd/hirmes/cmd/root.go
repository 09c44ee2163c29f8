// Package cmd provides the CLI commands for Hirmes.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	herrors "github.com/hirmes/hirmes/internal/errors"
	"github.com/hirmes/hirmes/internal/logging"
	"github.com/hirmes/hirmes/internal/ui"
	"github.com/hirmes/hirmes/pkg/version"
)

// Persistent flags
var (
	debugMode  bool
	serverURL  string
	noTUI      bool
	configPath string

	loggingCleanup func()
)

// errReported marks an error the user has already been shown through the
// modal; Execute exits non-zero without printing it again.
var errReported = errors.New("already reported")

type reportedError struct{ err error }

func (e *reportedError) Error() string   { return e.err.Error() }
func (e *reportedError) Unwrap() []error { return []error{e.err, errReported} }

func reported(err error) error { return &reportedError{err: err} }

// NewRootCmd creates the root command for the hirmes CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hirmes",
		Short: "Search and index documents through a Hirmes service",
		Long: `Hirmes is the client for a Hirmes indexing and search service.

Run 'hirmes' in a terminal for the interactive screen: type a query, toggle
full-text search, index a directory, and open results. Tags are fetched for
each result row when the service supports tagging.

The subcommands do the same from scripts and pipes.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), cmd)
		},
	}

	cmd.SetVersionTemplate("hirmes version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (file and stderr)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "Service base URL (overrides config and HIRMES_SERVER_URL)")
	cmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "Disable the interactive screen")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/hirmes/config.yaml)")

	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the file logger. The interactive screen never logs
// to stderr because it owns the terminal.
func startLogging(level string, interactive bool) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	switch {
	case debugMode && !interactive:
		logCfg = logging.DebugConfig()
	case debugMode:
		logCfg = logging.TUIConfig("debug")
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is best effort; commands still run.
		slog.SetDefault(logging.Discard())
		return
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("logging_started",
		slog.String("log_file", logCfg.FilePath),
		slog.String("version", version.Short()))
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command with interrupt handling.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, herrors.FormatForCLI(err))
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// runInteractive starts the full-screen UI, or shows help when the terminal
// cannot host it.
func runInteractive(ctx context.Context, cmd *cobra.Command) error {
	uiCfg := ui.NewConfig(cmd.OutOrStdout(), ui.WithInput(cmd.InOrStdin()), ui.WithForcePlain(noTUI))
	if ui.SelectMode(uiCfg) != ui.ModeTUI {
		return cmd.Help()
	}

	d, err := loadDeps(true)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.runTUI(ctx, uiCfg)
}
