package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/inbox"
	"github.com/spf13/cobra"
)

func newInboxCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show the staff inbox",
		Long: `Shows one summary row per RFQ, ranked by urgency: RFQs with
destinations needing attention sort first, then most recent activity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInbox(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	return cmd
}

func runInbox(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	rows, err := inbox.LoadRows(gormDB, time.Now(), thresholdsFromConfig(cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "Inbox is empty.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RFQ\tREFERENCE\tCUSTOMER\tSTATUSES\tATTENTION\tLAST ACTIVITY")
	for _, row := range rows {
		customer := row.CustomerName
		if customer == "" {
			customer = "-"
		}
		attention := "-"
		if row.NeedsActionCount > 0 {
			reasons := make([]string, len(row.Reasons))
			for i, r := range row.Reasons {
				reasons[i] = string(r)
			}
			attention = fmt.Sprintf("%d (%s)", row.NeedsActionCount, strings.Join(reasons, ", "))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.RFQID, truncate(row.Reference, 24), truncate(customer, 24),
			formatStatusCounts(row), attention, formatAgo(row.LastActivity))
	}
	w.Flush()
	return nil
}

// formatStatusCounts renders non-zero status counts in lifecycle order,
// like "2 sent, 1 quoted".
func formatStatusCounts(row inbox.Row) string {
	if row.Total == 0 {
		return "no destinations"
	}
	var parts []string
	for _, s := range destination.AllStatuses {
		if n := row.StatusCounts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	return strings.Join(parts, ", ")
}
