package inbox

import (
	"fmt"
	"log"
	"time"

	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/gorm"
)

// DestinationView pairs a destination snapshot with its live verdict, for
// per-RFQ drill-down.
type DestinationView struct {
	Destination models.Destination
	Verdict     sla.Verdict
}

// LoadRows reads every RFQ with its destinations and offers and builds the
// ranked inbox. Rows reflect the persisted snapshots at read time; nothing
// is cached.
func LoadRows(db *gorm.DB, now time.Time, th sla.Thresholds) ([]Row, error) {
	var rfqs []models.RFQ
	if err := db.Order("created_at ASC, id ASC").Find(&rfqs).Error; err != nil {
		return nil, fmt.Errorf("inbox: load rfqs: %w", err)
	}

	var dests []models.Destination
	if err := db.Find(&dests).Error; err != nil {
		return nil, fmt.Errorf("inbox: load destinations: %w", err)
	}

	var offers []models.Offer
	if err := db.Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("inbox: load offers: %w", err)
	}

	rows := BuildRows(rfqs, dests, offers, now, th)
	for _, row := range rows {
		if row.AnomalyCount > 0 {
			log.Printf("inbox: rfq %s has %d sent destination(s) with no sent timestamp", row.RFQID, row.AnomalyCount)
		}
	}
	return rows, nil
}

// LoadDetail returns every destination of one RFQ with its verdict.
func LoadDetail(db *gorm.DB, rfqID string, now time.Time, th sla.Thresholds) ([]DestinationView, error) {
	var dests []models.Destination
	if err := db.Where("rfq_id = ?", rfqID).Order("created_at ASC, id ASC").Find(&dests).Error; err != nil {
		return nil, fmt.Errorf("inbox: load destinations for %s: %w", rfqID, err)
	}

	var offers []models.Offer
	if err := db.Where("rfq_id = ?", rfqID).Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("inbox: load offers for %s: %w", rfqID, err)
	}
	offerSet := NewOfferSet(offers)

	views := make([]DestinationView, len(dests))
	for i, d := range dests {
		v := sla.Classify(d, offerSet.Has(d.RFQID, d.ProviderID), now, th)
		if v.Anomaly {
			log.Printf("inbox: destination %s is sent with no sent timestamp", d.ID)
		}
		views[i] = DestinationView{Destination: d, Verdict: v}
	}
	return views, nil
}
