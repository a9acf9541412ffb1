package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the partition sync log",
	Long:  "Displays the extract history of every partition recorded in the configured store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := parseStatusFilter(cmd)
		if err != nil {
			return err
		}

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(runs) == 0 {
			zap.L().Info("no runs found, run 'extract' to process partitions")
			return nil
		}

		formatStatusEntries(os.Stdout, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("year", 0, "only show runs for this year")
	statusCmd.Flags().String("status", "", "only show runs with this status: running, complete, failed")
	statusCmd.Flags().Int("limit", 100, "maximum runs to show")
	rootCmd.AddCommand(statusCmd)
}

func parseStatusFilter(cmd *cobra.Command) (store.RunFilter, error) {
	year, _ := cmd.Flags().GetInt("year")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	switch store.RunStatus(status) {
	case "", store.RunStatusRunning, store.RunStatusComplete, store.RunStatusFailed:
	default:
		return store.RunFilter{}, eris.Errorf("status: unknown run status %q", status)
	}
	return store.RunFilter{Year: year, Status: store.RunStatus(status), Limit: limit}, nil
}

// formatStatusEntries writes a tabular representation of runs to w.
func formatStatusEntries(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARTITION\tSTATUS\tSTARTED\tDURATION\tRETURNS\tOFFICERS\tGRANTS\tSKIPPED\tERROR")
	_, _ = fmt.Fprintln(w, "---------\t------\t-------\t--------\t-------\t--------\t------\t-------\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			d := r.CompletedAt.Sub(r.StartedAt).Round(time.Second)
			dur = d.String()
		}

		errMsg := ""
		if r.Error != "" {
			errMsg = truncate(r.Error, 60)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Partition(),
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.Returns,
			r.Officers,
			r.Grants,
			len(r.Skipped),
			errMsg,
		)
	}
	_ = w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
