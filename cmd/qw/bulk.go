package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/partforge/quotewire/internal/bulk"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/outreach"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Batch actions over selected destinations",
		Long: `Applies one action to several destinations at once. Each destination
gets its own result; one failure never stops the rest of the batch.`,
	}

	cmd.AddCommand(newBulkDraftOutreachCmd())
	cmd.AddCommand(newBulkWebFormCmd())
	cmd.AddCommand(newBulkMarkSentCmd())
	cmd.AddCommand(newBulkMarkErrorCmd())
	return cmd
}

func newBulkDraftOutreachCmd() *cobra.Command {
	var (
		configPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "draft-outreach <id>...",
		Short: "Generate outreach emails for email-mode destinations",
		Long:  "Generates the outreach email for each selected destination. Web-form destinations are skipped.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, configPath, args, bulk.KindDraftOutreach, bulk.BatchOpts{Concurrency: concurrency})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().IntVar(&concurrency, "concurrency", bulk.DefaultConcurrency, "max operations in flight")
	return cmd
}

func newBulkWebFormCmd() *cobra.Command {
	var (
		configPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "web-form <id>...",
		Short: "Generate submission instructions for web-form destinations",
		Long:  "Generates web form submission instructions for each selected destination. Email destinations are skipped.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, configPath, args, bulk.KindWebFormInstructions, bulk.BatchOpts{Concurrency: concurrency})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().IntVar(&concurrency, "concurrency", bulk.DefaultConcurrency, "max operations in flight")
	return cmd
}

func newBulkMarkSentCmd() *cobra.Command {
	var (
		configPath  string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "mark-sent <id>...",
		Short: "Mark selected destinations as sent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, configPath, args, bulk.KindMarkSent, bulk.BatchOpts{Concurrency: concurrency})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().IntVar(&concurrency, "concurrency", bulk.DefaultConcurrency, "max operations in flight")
	return cmd
}

func newBulkMarkErrorCmd() *cobra.Command {
	var (
		configPath  string
		concurrency int
		note        string
	)

	cmd := &cobra.Command{
		Use:   "mark-error <id>...",
		Short: "Mark selected destinations as errored",
		Long:  "Marks each selected destination as errored with a shared note, e.g. after a provider-wide bounce.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, configPath, args, bulk.KindMarkError, bulk.BatchOpts{Concurrency: concurrency, ErrorNote: note})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().IntVar(&concurrency, "concurrency", bulk.DefaultConcurrency, "max operations in flight")
	cmd.Flags().StringVar(&note, "note", "", "shared error note (required)")
	cmd.MarkFlagRequired("note")
	return cmd
}

func runBulk(cmd *cobra.Command, configPath string, ids []string, kind bulk.Kind, opts bulk.BatchOpts) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	dests, err := loadSelection(gormDB, ids)
	if err != nil {
		return err
	}

	gen := outreach.NewTemplateGenerator(cfg.Outreach)
	results, err := bulk.RunBatch(gormDB, gen, dests, kind, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DESTINATION\tPROVIDER\tRESULT\tDETAIL")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.DestinationID, truncate(r.ProviderLabel, 30), r.Status, r.Message)
	}
	w.Flush()

	// Generated payloads go after the table so staff can copy them out.
	for _, r := range results {
		if r.Email != nil {
			fmt.Fprintf(out, "\n--- %s (%s) ---\n", r.DestinationID, r.ProviderLabel)
			fmt.Fprintf(out, "Subject: %s\n\n%s\n", r.Email.Subject, r.Email.Body)
		}
		if r.WebForm != nil {
			fmt.Fprintf(out, "\n--- %s (%s) ---\n", r.DestinationID, r.ProviderLabel)
			fmt.Fprintf(out, "URL: %s\n\n%s\n", r.WebForm.URL, r.WebForm.Instructions)
		}
	}

	s := bulk.Summarize(results)
	fmt.Fprintf(out, "\n%d succeeded, %d failed, %d skipped\n", s.Success, s.Errors, s.Skipped)
	return nil
}

// loadSelection fetches the selected destinations in argument order, so batch
// results line up with the IDs staff passed.
func loadSelection(db *gorm.DB, ids []string) ([]models.Destination, error) {
	var found []models.Destination
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("load destinations: %w", err)
	}
	byID := make(map[string]models.Destination, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	dests := make([]models.Destination, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("destination not found: %s", id)
		}
		dests = append(dests, d)
	}
	return dests, nil
}
