// Package cli wires the chatstats commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/j-veylop/chatstats-tui/internal/config"
	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/services"
)

const (
	logFileName    = "chatstats.log"
	annotationTUI  = "tui"
	annotationTrue = "true"
)

// appContext carries what every command needs once configuration is loaded.
type appContext struct {
	cfg       *config.Config
	logCloser io.Closer
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the dashboard.
func NewRootCmd() *cobra.Command {
	a := &appContext{}

	root := &cobra.Command{
		Use:   "chatstats",
		Short: "Chat statistics dashboard",
		Long: `chatstats aggregates chat activity into daily, weekly, monthly and
all-time statistics and shows them in a terminal dashboard.

Topic files written to TOPICS_DIR are watched while the dashboard runs.
Statistics are kept in a local SQLite database (DATABASE_PATH).`,
		SilenceUsage:       true,
		Annotations:        map[string]string{annotationTUI: annotationTrue},
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runTUI,
	}

	root.AddCommand(
		newTUICmd(a),
		newReportCmd(a),
		newRangeCmd(a),
		newRecalcCmd(a),
		newIngestCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and the logger. The dashboard owns the
// terminal, so it logs to a file unless LOG_FILE says otherwise.
func (a *appContext) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	logFile := cfg.LogFile
	if logFile == "" && cmd.Annotations[annotationTUI] == annotationTrue {
		logFile = filepath.Join(cfg.DataDir(), logFileName)
	}
	a.logCloser = logger.Setup(cfg.LogLevel, logFile)
	return nil
}

func (a *appContext) teardown(_ *cobra.Command, _ []string) error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

// manager opens the service manager for one command.
func (a *appContext) manager() (*services.Manager, error) {
	mgr, err := services.NewManager(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return mgr, nil
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		logger.Warn("Error closing services", "error", err)
	}
}
