package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/partforge/quotewire/internal/inbox"
	"github.com/partforge/quotewire/internal/rfq"
	"github.com/spf13/cobra"
)

func newRFQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rfq",
		Short: "RFQ management commands",
	}

	cmd.AddCommand(newRFQCreateCmd())
	cmd.AddCommand(newRFQListCmd())
	cmd.AddCommand(newRFQShowCmd())
	return cmd
}

func newRFQCreateCmd() *cobra.Command {
	var (
		configPath string
		reference  string
		customer   string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new RFQ",
		Long:  "Creates a new RFQ with an auto-generated ID. Destinations are added separately with 'qw dest add'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRFQCreate(cmd, configPath, rfq.CreateOpts{
				Reference:    reference,
				CustomerName: customer,
				Notes:        notes,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().StringVar(&reference, "reference", "", "customer-facing reference (required)")
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.MarkFlagRequired("reference")
	return cmd
}

func runRFQCreate(cmd *cobra.Command, configPath string, opts rfq.CreateOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	r, err := rfq.Create(gormDB, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created RFQ %s\n", r.ID)
	fmt.Fprintf(out, "Reference: %s\n", r.Reference)
	return nil
}

func newRFQListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List RFQs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRFQList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	return cmd
}

func runRFQList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	rfqs, err := rfq.List(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rfqs) == 0 {
		fmt.Fprintln(out, "No RFQs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tCUSTOMER\tCREATED")
	for _, r := range rfqs {
		customer := r.CustomerName
		if customer == "" {
			customer = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ID, truncate(r.Reference, 30), truncate(customer, 30), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}

func newRFQShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show RFQ details",
		Long:  "Displays an RFQ with every destination, its status, and its live attention verdict.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRFQShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	return cmd
}

func runRFQShow(cmd *cobra.Command, configPath, id string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	r, err := rfq.Get(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:        %s\n", r.ID)
	fmt.Fprintf(out, "Reference: %s\n", r.Reference)
	if r.CustomerName != "" {
		fmt.Fprintf(out, "Customer:  %s\n", r.CustomerName)
	}
	fmt.Fprintf(out, "Created:   %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.Notes != "" {
		fmt.Fprintf(out, "\nNotes:\n%s\n", r.Notes)
	}

	views, err := inbox.LoadDetail(gormDB, r.ID, time.Now(), thresholdsFromConfig(cfg))
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "\nNo destinations.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tMODE\tSTATUS\tATTENTION\tLAST CHANGE")
	for _, v := range views {
		d := v.Destination
		attention := "-"
		if v.Verdict.NeedsAction {
			attention = string(v.Verdict.Reason)
		}
		label := d.ProviderName
		if label == "" {
			label = d.ProviderID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, truncate(label, 30), d.DispatchMode, d.Status, attention, formatAgo(d.LastStatusAt))
	}
	w.Flush()

	if anomalies := countAnomalies(views); anomalies > 0 {
		fmt.Fprintf(out, "\n%d destination(s) are sent with no sent timestamp; fix upstream.\n", anomalies)
	}
	return nil
}

func countAnomalies(views []inbox.DestinationView) int {
	n := 0
	for _, v := range views {
		if v.Verdict.Anomaly {
			n++
		}
	}
	return n
}
