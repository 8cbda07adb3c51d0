// Package inbox aggregates destinations into per-RFQ summary rows ranked by
// urgency for the staff inbox.
package inbox

import (
	"sort"
	"time"

	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/sla"
)

// reasonOrder fixes the display order of distinct reasons on a row.
var reasonOrder = []sla.Reason{sla.ReasonError, sla.ReasonQueuedTooLong, sla.ReasonSentNoReply}

// Row is one RFQ's summary in the staff inbox. Derived, recomputed on every
// read, never stored.
type Row struct {
	RFQID            string
	Reference        string
	CustomerName     string
	StatusCounts     map[destination.Status]int // zero-filled for all statuses
	Total            int
	NeedsActionCount int
	Reasons          []sla.Reason // distinct, in reasonOrder
	LastActivity     time.Time
	AnomalyCount     int // sent destinations with no sent timestamp
}

// OfferSet answers "does this provider have an offer on this RFQ".
type OfferSet map[string]map[string]bool

// NewOfferSet indexes offers by RFQ and provider.
func NewOfferSet(offers []models.Offer) OfferSet {
	set := make(OfferSet)
	for _, o := range offers {
		byProvider, ok := set[o.RFQID]
		if !ok {
			byProvider = make(map[string]bool)
			set[o.RFQID] = byProvider
		}
		byProvider[o.ProviderID] = true
	}
	return set
}

// Has reports whether the provider has at least one offer on the RFQ.
func (s OfferSet) Has(rfqID, providerID string) bool {
	return s[rfqID][providerID]
}

// BuildRows groups destinations by RFQ, classifies each one at the given
// instant, and returns ranked summary rows. Rows with destinations needing
// action sort first; within each group, most recent activity first; ties
// break on ascending RFQ ID so pagination is deterministic.
func BuildRows(rfqs []models.RFQ, dests []models.Destination, offers []models.Offer, now time.Time, th sla.Thresholds) []Row {
	offerSet := NewOfferSet(offers)

	byRFQ := make(map[string][]models.Destination)
	for _, d := range dests {
		byRFQ[d.RFQID] = append(byRFQ[d.RFQID], d)
	}

	rows := make([]Row, 0, len(rfqs))
	for _, rfq := range rfqs {
		row := Row{
			RFQID:        rfq.ID,
			Reference:    rfq.Reference,
			CustomerName: rfq.CustomerName,
			StatusCounts: zeroCounts(),
			LastActivity: rfq.CreatedAt,
		}

		reasons := make(map[sla.Reason]bool)
		for _, d := range byRFQ[rfq.ID] {
			row.Total++
			row.StatusCounts[destination.Status(d.Status)]++

			v := sla.Classify(d, offerSet.Has(d.RFQID, d.ProviderID), now, th)
			if v.NeedsAction {
				row.NeedsActionCount++
				reasons[v.Reason] = true
			}
			if v.Anomaly {
				row.AnomalyCount++
			}

			row.LastActivity = latest(row.LastActivity, d.LastStatusAt)
			if d.SentAt != nil {
				row.LastActivity = latest(row.LastActivity, *d.SentAt)
			}
			if d.SubmittedAt != nil {
				row.LastActivity = latest(row.LastActivity, *d.SubmittedAt)
			}
		}

		for _, r := range reasonOrder {
			if reasons[r] {
				row.Reasons = append(row.Reasons, r)
			}
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		iNeeds, jNeeds := rows[i].NeedsActionCount > 0, rows[j].NeedsActionCount > 0
		if iNeeds != jNeeds {
			return iNeeds
		}
		if !rows[i].LastActivity.Equal(rows[j].LastActivity) {
			return rows[i].LastActivity.After(rows[j].LastActivity)
		}
		return rows[i].RFQID < rows[j].RFQID
	})
	return rows
}

// zeroCounts returns a counts map with every status present at zero.
func zeroCounts() map[destination.Status]int {
	counts := make(map[destination.Status]int, len(destination.AllStatuses))
	for _, s := range destination.AllStatuses {
		counts[s] = 0
	}
	return counts
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
