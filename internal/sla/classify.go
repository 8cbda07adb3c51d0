// Package sla decides, purely from timestamps and configuration, which
// destinations currently require staff attention.
package sla

import (
	"time"

	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
)

// Reason explains why a destination needs attention.
type Reason string

const (
	ReasonQueuedTooLong Reason = "queued_too_long"
	ReasonSentNoReply   Reason = "sent_no_reply"
	ReasonError         Reason = "error"
)

// Thresholds holds the attention thresholds for one evaluation cycle.
// Immutable during the cycle; build it once from configuration.
type Thresholds struct {
	QueuedMax      time.Duration
	SentNoReplyMax time.Duration
}

// FromHours builds Thresholds from whole hour counts. Zero means a
// destination is overdue as soon as any time has elapsed.
func FromHours(queuedMaxHours, sentNoReplyMaxHours int) Thresholds {
	return Thresholds{
		QueuedMax:      time.Duration(queuedMaxHours) * time.Hour,
		SentNoReplyMax: time.Duration(sentNoReplyMaxHours) * time.Hour,
	}
}

// Verdict is the classifier's judgment for a single destination. Derived,
// never stored.
type Verdict struct {
	NeedsAction bool
	Reason      Reason // empty when NeedsAction is false
	Anomaly     bool   // data-integrity anomaly seen; caller should log it
}

// Classify evaluates one destination snapshot at the given instant. Pure and
// deterministic: identical inputs yield identical verdicts. Error status
// dominates every staleness check because it needs attention regardless of
// age; staleness uses strict > so a destination exactly at the threshold is
// not yet overdue.
func Classify(d models.Destination, hasOffer bool, now time.Time, th Thresholds) Verdict {
	switch destination.Status(d.Status) {
	case destination.StatusError:
		return Verdict{NeedsAction: true, Reason: ReasonError}

	case destination.StatusQueued:
		if now.Sub(d.CreatedAt) > th.QueuedMax {
			return Verdict{NeedsAction: true, Reason: ReasonQueuedTooLong}
		}

	case destination.StatusSent:
		if d.SentAt == nil {
			// Should not occur under the state machine's invariants.
			// Under-alerting beats crashing an inbox view over stale data.
			return Verdict{Anomaly: true}
		}
		if !hasOffer && now.Sub(*d.SentAt) > th.SentNoReplyMax {
			return Verdict{NeedsAction: true, Reason: ReasonSentNoReply}
		}
	}
	return Verdict{}
}
