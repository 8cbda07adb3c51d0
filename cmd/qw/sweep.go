package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/partforge/quotewire/internal/alert"
	"github.com/partforge/quotewire/internal/alert/discord"
	"github.com/partforge/quotewire/internal/alert/slack"
	"github.com/partforge/quotewire/internal/config"
	"github.com/partforge/quotewire/internal/monitor"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the SLA sweep",
		Long: `Classifies every destination, records alerts for the ones needing
attention, and notifies the configured platform. With --once, runs a single
sweep and exits; otherwise runs on the configured schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quotewire.yaml", "path to Quotewire config file")
	cmd.Flags().BoolVar(&once, "once", false, "run one sweep and exit")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string, once bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	notifier, err := notifierFromConfig(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	th := thresholdsFromConfig(cfg)

	if once {
		res, err := monitor.Sweep(gormDB, notifier, time.Now(), th)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Evaluated %d destination(s): %d need attention, %d new alert(s), %d notified, %d resolved\n",
			res.Evaluated, res.NeedsAction, res.NewAlerts, res.Notified, res.Resolved)
		if res.Anomalies > 0 {
			fmt.Fprintf(out, "%d destination(s) are sent with no sent timestamp; fix upstream.\n", res.Anomalies)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Sweeping on schedule %q (Ctrl-C to stop)\n", cfg.Alerts.SweepSchedule)
	return monitor.Run(ctx, gormDB, notifier, cfg.Alerts.SweepSchedule, th, out)
}

// notifierFromConfig builds the alert notifier for the configured platform.
// With no platform, alerts are still recorded but nothing is posted.
func notifierFromConfig(cfg *config.Config) (alert.Notifier, error) {
	switch cfg.Alerts.Platform {
	case "slack":
		return slack.New(slack.Opts{
			BotToken:  cfg.Alerts.Slack.BotToken,
			ChannelID: cfg.Alerts.Slack.Channel,
		})
	case "discord":
		return discord.New(discord.Opts{
			BotToken:  cfg.Alerts.Discord.BotToken,
			ChannelID: cfg.Alerts.Discord.Channel,
		})
	default:
		return alert.NopNotifier{}, nil
	}
}
