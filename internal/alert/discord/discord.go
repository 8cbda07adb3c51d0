// Package discord implements the alert Notifier for Discord.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts alert messages to a Discord channel over the REST API; no
// gateway connection is needed for outbound-only use.
type Notifier struct {
	sess      session
	channelID string
}

// Opts holds parameters for creating a Discord Notifier.
type Opts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}

	s := opts.Session
	if s == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		s = dg
	}

	return &Notifier{sess: s, channelID: opts.ChannelID}, nil
}

// Post sends one message to the configured channel.
func (n *Notifier) Post(text string) error {
	if _, err := n.sess.ChannelMessageSend(n.channelID, text); err != nil {
		return fmt.Errorf("discord: post message: %w", err)
	}
	return nil
}
