package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jedawel/lenssafe/internal/store"
)

// recentWindow is the span summarized under the alerts table.
const recentWindow = 24 * time.Hour

// now is replaced in tests.
var now = time.Now

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recent eye rubbing alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(opts.cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			alerts, err := st.Alerts().List(limit)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				fmt.Fprintln(out, "No alerts recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEYE\tHAND\tFRAMES\tSESSION")
			for _, a := range alerts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					a.OccurredAt.Local().Format("2006-01-02 15:04:05"),
					orDash(a.Eye), orDash(a.Hand), a.ConsecutiveFrames, orDash(a.SessionID))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			recent, err := st.Alerts().CountSince(now().Add(-recentWindow))
			if err != nil {
				return fmt.Errorf("failed to count alerts: %w", err)
			}
			fmt.Fprintf(out, "\n%d alert(s) in the last 24 hours\n", recent)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of alerts to show (0 for all)")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
