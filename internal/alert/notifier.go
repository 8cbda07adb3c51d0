package alert

import (
	"fmt"

	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/sla"
)

// Notifier pushes alert text to a staff channel. Implementations live in the
// slack and discord subpackages; NopNotifier keeps sweeps runnable with
// alerts disabled.
type Notifier interface {
	Post(text string) error
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Post(string) error { return nil }

// reasonText maps classifier reasons to staff-facing phrasing.
var reasonText = map[string]string{
	string(sla.ReasonQueuedTooLong): "queued too long without being sent",
	string(sla.ReasonSentNoReply):   "sent with no reply from the provider",
	string(sla.ReasonError):         "dispatch failed",
}

// Format renders one alert as a channel message.
func Format(a models.Alert, d models.Destination) string {
	provider := d.ProviderName
	if provider == "" {
		provider = d.ProviderID
	}
	text := reasonText[a.Reason]
	if text == "" {
		text = a.Reason
	}
	msg := fmt.Sprintf("RFQ %s → %s: %s", a.RFQID, provider, text)
	if a.Message != "" {
		msg += fmt.Sprintf("\n> %s", a.Message)
	}
	return msg
}
