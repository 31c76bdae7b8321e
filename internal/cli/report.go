package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/report"
)

func newReportCmd(a *appContext) *cobra.Command {
	var window, format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print statistics for a window",
		Long: `Print the live statistics of one window.

Examples:
  chatstats report                          # Default window as tables
  chatstats report --window weekly          # This week
  chatstats report -w all_time -f json      # Everything, as JSON
  chatstats report -f markdown > stats.md   # Markdown tables`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := a.cfg.DefaultWindow
			if window != "" {
				parsed, err := models.ParseWindow(window)
				if err != nil {
					return err
				}
				w = parsed
			}

			rep, err := report.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			mgr, err := a.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			snap, err := mgr.Statistics(cmd.Context(), w)
			if err != nil {
				return fmt.Errorf("failed to load %s statistics: %w", string(w), err)
			}
			return rep.Render(w.String(), snap)
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "", "Window: daily, weekly, monthly, all_time (default DEFAULT_WINDOW)")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatTable, "Output format: table, markdown, json")
	return cmd
}
