// Package slack implements the alert Notifier for Slack.
package slack

import (
	"errors"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// client abstracts the Slack API methods we use, enabling test mocks.
type client interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts alert messages to a Slack channel.
type Notifier struct {
	client    client
	channelID string
}

// Opts holds parameters for creating a Slack Notifier.
type Opts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post alerts to
	// For testing: inject a mock client instead of the real Slack API.
	Client client
}

// New creates a Slack Notifier and verifies the token when a real client is
// constructed.
func New(opts Opts) (*Notifier, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}

	c := opts.Client
	if c == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		c = slackapi.New(opts.BotToken)
	}

	if _, err := c.AuthTest(); err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}

	return &Notifier{client: c, channelID: opts.ChannelID}, nil
}

// Post sends one message to the configured channel, retrying when Slack
// rate-limits the call.
func (n *Notifier) Post(text string) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		_, _, err := n.client.PostMessage(n.channelID, slackapi.MsgOptionText(text, false))
		if err == nil {
			return nil
		}
		lastErr = err

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			break
		}
		time.Sleep(rle.RetryAfter)
	}
	return fmt.Errorf("slack: post message: %w", lastErr)
}
