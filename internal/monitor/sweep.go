// Package monitor runs periodic SLA sweeps: classify every destination,
// persist new needs-action findings, and notify the staff channel.
package monitor

import (
	"fmt"
	"log"
	"time"

	"github.com/partforge/quotewire/internal/alert"
	"github.com/partforge/quotewire/internal/inbox"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/gorm"
)

// SweepResult summarizes one sweep for logging and CLI output.
type SweepResult struct {
	Evaluated   int // destinations classified
	NeedsAction int // verdicts requiring attention
	NewAlerts   int // alerts recorded this sweep (dedup filtered the rest)
	Notified    int // channel messages actually posted
	Resolved    int // destinations whose open alerts were closed
	Anomalies   int // sent destinations with no sent timestamp
}

// Sweep classifies every destination at the given instant. New findings are
// recorded and pushed through the notifier; findings that no longer hold get
// their open alerts closed. Notification failures are logged, not returned:
// a flaky channel must not fail the sweep.
func Sweep(db *gorm.DB, notifier alert.Notifier, now time.Time, th sla.Thresholds) (SweepResult, error) {
	var res SweepResult
	if db == nil {
		return res, fmt.Errorf("monitor: db is required")
	}
	if notifier == nil {
		notifier = alert.NopNotifier{}
	}

	var dests []models.Destination
	if err := db.Find(&dests).Error; err != nil {
		return res, fmt.Errorf("monitor: load destinations: %w", err)
	}
	var offers []models.Offer
	if err := db.Find(&offers).Error; err != nil {
		return res, fmt.Errorf("monitor: load offers: %w", err)
	}
	offerSet := inbox.NewOfferSet(offers)

	for _, d := range dests {
		res.Evaluated++
		v := sla.Classify(d, offerSet.Has(d.RFQID, d.ProviderID), now, th)

		if v.Anomaly {
			res.Anomalies++
			log.Printf("monitor: destination %s is sent with no sent timestamp", d.ID)
		}

		if !v.NeedsAction {
			closed, err := closeStale(db, d.ID)
			if err != nil {
				return res, err
			}
			if closed {
				res.Resolved++
			}
			continue
		}

		res.NeedsAction++
		a, created, err := alert.Record(db, d, v.Reason, describeVerdict(d, v, now))
		if err != nil {
			return res, err
		}
		if !created {
			continue
		}
		res.NewAlerts++

		if err := notifier.Post(alert.Format(*a, d)); err != nil {
			log.Printf("monitor: notify for %s failed: %v", d.ID, err)
			continue
		}
		res.Notified++
	}
	return res, nil
}

// closeStale acknowledges open alerts for a destination that no longer
// needs attention. Returns whether anything was closed.
func closeStale(db *gorm.DB, destinationID string) (bool, error) {
	var count int64
	err := db.Model(&models.Alert{}).
		Where("destination_id = ? AND acknowledged = ?", destinationID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("monitor: count open alerts for %s: %w", destinationID, err)
	}
	if count == 0 {
		return false, nil
	}
	if err := alert.AcknowledgeDestination(db, destinationID); err != nil {
		return false, err
	}
	return true, nil
}

// describeVerdict renders a short staff-facing explanation for the alert row.
func describeVerdict(d models.Destination, v sla.Verdict, now time.Time) string {
	switch v.Reason {
	case sla.ReasonError:
		return d.ErrorMessage
	case sla.ReasonQueuedTooLong:
		return fmt.Sprintf("queued for %s", now.Sub(d.CreatedAt).Round(time.Minute))
	case sla.ReasonSentNoReply:
		if d.SentAt != nil {
			return fmt.Sprintf("sent %s ago", now.Sub(*d.SentAt).Round(time.Minute))
		}
	}
	return ""
}
