package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRecalcCmd(a *appContext) *cobra.Command {
	var vacuum bool

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Rebuild live statistics from every stored topic",
		Long: `Rebuild the daily, weekly, monthly and all-time statistics from every
topic in the database. Archived history is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			start := time.Now()
			if err := mgr.Recalculate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to recalculate statistics: %w", err)
			}

			topics, err := mgr.Database().CountTopics(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count topics: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated statistics from %d topics in %s\n",
				topics, time.Since(start).Round(time.Millisecond))

			if vacuum {
				if err := mgr.Database().Vacuum(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database compacted")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "Compact the database afterwards")
	return cmd
}
