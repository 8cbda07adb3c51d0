package main

import (
	"fmt"
	"time"

	"github.com/partforge/quotewire/internal/config"
	"github.com/partforge/quotewire/internal/db"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the database connection
// every data command needs.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	return cfg, gormDB, nil
}

// thresholdsFromConfig converts configured hour counts to classify thresholds.
func thresholdsFromConfig(cfg *config.Config) sla.Thresholds {
	return sla.FromHours(cfg.QueuedMaxHours(), cfg.SentNoReplyMaxHours())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAgo renders a past timestamp as a compact relative age like "3h".
func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
