// Package config provides YAML-based configuration loading for Quotewire.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default SLA thresholds in whole hours.
const (
	DefaultQueuedMaxHours      = 24
	DefaultSentNoReplyMaxHours = 72
)

// Config is the top-level Quotewire configuration, loaded from quotewire.yaml.
type Config struct {
	DB       DBConfig       `yaml:"db"`
	SLA      SLAConfig      `yaml:"sla"`
	Outreach OutreachConfig `yaml:"outreach"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// DBConfig holds connection settings for the MySQL server.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SLAConfig holds attention thresholds as whole, non-negative hour counts.
// A value of 0 means a destination is overdue immediately. Nil fields take
// the package defaults; message_reply_max_hours stays disabled when unset.
type SLAConfig struct {
	QueuedMaxHours       *int `yaml:"queued_max_hours"`
	SentNoReplyMaxHours  *int `yaml:"sent_no_reply_max_hours"`
	MessageReplyMaxHours *int `yaml:"message_reply_max_hours"`
}

// OutreachConfig controls generated outreach content.
type OutreachConfig struct {
	FromName      string `yaml:"from_name"`
	ReplyTo       string `yaml:"reply_to"`
	PortalBaseURL string `yaml:"portal_base_url"`
}

// AlertsConfig selects the notification platform for SLA sweeps.
type AlertsConfig struct {
	Platform      string        `yaml:"platform"` // "slack", "discord", or "" (off)
	SweepSchedule string        `yaml:"sweep_schedule"`
	Slack         SlackConfig   `yaml:"slack"`
	Discord       DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack credentials for the alert notifier.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord credentials for the alert notifier.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// QueuedMaxHours returns the effective queued-too-long threshold.
func (c *Config) QueuedMaxHours() int {
	if c.SLA.QueuedMaxHours == nil {
		return DefaultQueuedMaxHours
	}
	return *c.SLA.QueuedMaxHours
}

// SentNoReplyMaxHours returns the effective sent-no-reply threshold.
func (c *Config) SentNoReplyMaxHours() int {
	if c.SLA.SentNoReplyMaxHours == nil {
		return DefaultSentNoReplyMaxHours
	}
	return *c.SLA.SentNoReplyMaxHours
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "quotewire"
	}
	if c.Outreach.FromName == "" {
		c.Outreach.FromName = "Quotewire"
	}
	if c.Alerts.SweepSchedule == "" {
		c.Alerts.SweepSchedule = "*/15 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
// SLA hours must be whole and non-negative; they are never clamped.
func (c *Config) validate() error {
	var errs []string
	if c.SLA.QueuedMaxHours != nil && *c.SLA.QueuedMaxHours < 0 {
		errs = append(errs, fmt.Sprintf("sla.queued_max_hours must be >= 0, got %d", *c.SLA.QueuedMaxHours))
	}
	if c.SLA.SentNoReplyMaxHours != nil && *c.SLA.SentNoReplyMaxHours < 0 {
		errs = append(errs, fmt.Sprintf("sla.sent_no_reply_max_hours must be >= 0, got %d", *c.SLA.SentNoReplyMaxHours))
	}
	if c.SLA.MessageReplyMaxHours != nil && *c.SLA.MessageReplyMaxHours < 0 {
		errs = append(errs, fmt.Sprintf("sla.message_reply_max_hours must be >= 0, got %d", *c.SLA.MessageReplyMaxHours))
	}
	switch c.Alerts.Platform {
	case "", "none":
	case "slack":
		if c.Alerts.Slack.BotToken == "" {
			errs = append(errs, "alerts.slack.bot_token is required when platform is slack")
		}
		if c.Alerts.Slack.Channel == "" {
			errs = append(errs, "alerts.slack.channel is required when platform is slack")
		}
	case "discord":
		if c.Alerts.Discord.BotToken == "" {
			errs = append(errs, "alerts.discord.bot_token is required when platform is discord")
		}
		if c.Alerts.Discord.Channel == "" {
			errs = append(errs, "alerts.discord.channel is required when platform is discord")
		}
	default:
		errs = append(errs, fmt.Sprintf("alerts.platform must be slack, discord, or none, got %q", c.Alerts.Platform))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
