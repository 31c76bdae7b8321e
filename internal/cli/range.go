package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/chatstats-tui/internal/report"
	"github.com/j-veylop/chatstats-tui/internal/timewindow"
)

func newRangeCmd(a *appContext) *cobra.Command {
	var from, to, format string

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Merge archived daily statistics over a date range",
		Long: `Merge the archived daily statistics of every day from --from to --to
(inclusive). Days without history are skipped.

Examples:
  chatstats range --from 2024-03-01 --to 2024-03-31
  chatstats range --from 2024-01-01 --to 2024-12-31 -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := timewindow.ParseDate(from, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --from date %q: %w", from, err)
			}
			end, err := timewindow.ParseDate(to, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --to date %q: %w", to, err)
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
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

			snap, err := mgr.StatsForRange(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("failed to load range: %w", err)
			}
			if snap == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No archived statistics between %s and %s\n", from, to)
				return nil
			}
			return rep.Render(fmt.Sprintf("%s to %s", from, to), snap)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatTable, "Output format: table, markdown, json")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
