package models

import "time"

// Offer is a provider's price/lead-time response to an RFQ. Read-only input
// to the engine; its presence silences the sent-no-reply alert for that
// provider's destinations.
type Offer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RFQID        string `gorm:"size:32;not null;index"`
	ProviderID   string `gorm:"size:64;not null;index"`
	PriceCents   int64
	Currency     string `gorm:"size:8;default:USD"`
	LeadTimeDays int
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
}
