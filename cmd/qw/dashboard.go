package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/partforge/quotewire/internal/dashboard"
	"github.com/partforge/quotewire/internal/outreach"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the staff dashboard API server",
		Long:  "Serves the inbox, per-RFQ drill-down, destination actions, and the alert feed over HTTP. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:         gormDB,
		Gen:        outreach.NewTemplateGenerator(cfg.Outreach),
		Thresholds: thresholdsFromConfig(cfg),
		Port:       port,
		Out:        cmd.OutOrStdout(),
	})
}
