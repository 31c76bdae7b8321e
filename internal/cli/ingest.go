package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd(a *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Import topic files and record their new activity",
		Long: `Import topic JSON files (one topic or an array of topics per file) and
record every message and session not seen before.

Examples:
  chatstats ingest export.json
  chatstats ingest ~/backups/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			sum, err := mgr.Ingest(cmd.Context(), args...)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d files: %d topics, %d new messages, %d new sessions\n",
				sum.Files, len(args), sum.Topics, sum.Messages, sum.Sessions)
			if err != nil {
				return fmt.Errorf("some files could not be imported: %w", err)
			}
			return nil
		},
	}
}
