package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/partforge/quotewire/internal/destination"
	"github.com/spf13/cobra"
)

func newDestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dest",
		Short: "Destination management commands",
	}

	cmd.AddCommand(newDestAddCmd())
	cmd.AddCommand(newDestListCmd())
	cmd.AddCommand(newDestShowCmd())
	cmd.AddCommand(newDestTransitionCmd())
	return cmd
}

func newDestAddCmd() *cobra.Command {
	var (
		configPath   string
		rfqID        string
		providerID   string
		providerName string
		mode         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a provider destination to an RFQ",
		Long:  "Adds a destination in the draft state. It enters the pipeline when transitioned to queued.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDestAdd(cmd, configPath, destination.CreateOpts{
				RFQID:        rfqID,
				ProviderID:   providerID,
				ProviderName: providerName,
				DispatchMode: destination.DispatchMode(mode),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().StringVar(&rfqID, "rfq", "", "RFQ ID (required)")
	cmd.Flags().StringVar(&providerID, "provider", "", "provider ID (required)")
	cmd.Flags().StringVar(&providerName, "name", "", "provider display name")
	cmd.Flags().StringVar(&mode, "mode", "email", "dispatch mode (email or web_form)")
	cmd.MarkFlagRequired("rfq")
	cmd.MarkFlagRequired("provider")
	return cmd
}

func runDestAdd(cmd *cobra.Command, configPath string, opts destination.CreateOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	d, err := destination.Create(gormDB, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created destination %s\n", d.ID)
	fmt.Fprintf(out, "RFQ:      %s\n", d.RFQID)
	fmt.Fprintf(out, "Provider: %s\n", d.ProviderID)
	fmt.Fprintf(out, "Mode:     %s\n", d.DispatchMode)
	return nil
}

func newDestListCmd() *cobra.Command {
	var (
		configPath string
		rfqID      string
		providerID string
		status     string
		mode       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List destinations",
		Long:  "Lists destinations with optional filters. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDestList(cmd, configPath, destination.ListFilters{
				RFQID:      rfqID,
				ProviderID: providerID,
				Status:     destination.Status(status),
				Mode:       destination.DispatchMode(mode),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().StringVar(&rfqID, "rfq", "", "filter by RFQ ID")
	cmd.Flags().StringVar(&providerID, "provider", "", "filter by provider ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&mode, "mode", "", "filter by dispatch mode")
	return cmd
}

func runDestList(cmd *cobra.Command, configPath string, filters destination.ListFilters) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	dests, err := destination.List(gormDB, filters)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(dests) == 0 {
		fmt.Fprintln(out, "No destinations found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRFQ\tPROVIDER\tMODE\tSTATUS\tLAST CHANGE")
	for _, d := range dests {
		label := d.ProviderName
		if label == "" {
			label = d.ProviderID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.RFQID, truncate(label, 30), d.DispatchMode, d.Status, formatAgo(d.LastStatusAt))
	}
	w.Flush()
	return nil
}

func newDestShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show destination details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDestShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	return cmd
}

func runDestShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	d, err := destination.Get(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", d.ID)
	fmt.Fprintf(out, "RFQ:         %s\n", d.RFQID)
	fmt.Fprintf(out, "Provider:    %s\n", d.ProviderID)
	if d.ProviderName != "" {
		fmt.Fprintf(out, "Name:        %s\n", d.ProviderName)
	}
	fmt.Fprintf(out, "Mode:        %s\n", d.DispatchMode)
	fmt.Fprintf(out, "Status:      %s\n", d.Status)
	fmt.Fprintf(out, "Created:     %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Last change: %s\n", d.LastStatusAt.Format("2006-01-02 15:04:05"))
	if d.SentAt != nil {
		fmt.Fprintf(out, "Sent:        %s\n", d.SentAt.Format("2006-01-02 15:04:05"))
	}
	if d.SubmittedAt != nil {
		fmt.Fprintf(out, "Submitted:   %s\n", d.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	if d.ErrorMessage != "" {
		fmt.Fprintf(out, "\nError:\n%s\n", d.ErrorMessage)
	}

	from := destination.Status(d.Status)
	if targets := destination.ValidTransitions[from]; len(targets) > 0 {
		fmt.Fprintf(out, "\nValid transitions: %v\n", targets)
	} else if from.Terminal() {
		fmt.Fprintln(out, "\nTerminal status; no further transitions.")
	}
	return nil
}

func newDestTransitionCmd() *cobra.Command {
	var (
		configPath string
		message    string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "transition <id> <status>",
		Short: "Transition a destination to a new status",
		Long: `Moves a destination through its lifecycle. Marking error requires
--message; marking submitted requires --notes describing how the manual
submission was performed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDestTransition(cmd, configPath, args[0], args[1], message, notes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().StringVar(&message, "message", "", "error detail (required for error)")
	cmd.Flags().StringVar(&notes, "notes", "", "submission notes (required for submitted)")
	return cmd
}

func runDestTransition(cmd *cobra.Command, configPath, id, status, message, notes string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	target := destination.Status(status)
	if !target.Known() {
		return fmt.Errorf("unknown status %q", status)
	}

	d, err := destination.Transition(gormDB, id, target, destination.TransitionContext{
		ErrorMessage:    message,
		SubmissionNotes: notes,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Destination %s is now %s\n", d.ID, d.Status)
	return nil
}
