package models

import "time"

// Destination is one outbound channel instance for one RFQ/provider pair.
// Status is mutated only through the destination package's transition table.
type Destination struct {
	ID           string `gorm:"primaryKey;size:32"`
	RFQID        string `gorm:"size:32;not null;index"`
	ProviderID   string `gorm:"size:64;not null;index"`
	ProviderName string `gorm:"size:128"`
	Status       string `gorm:"size:16;default:draft;index"`
	DispatchMode string `gorm:"size:16;default:email"`
	ErrorMessage string `gorm:"type:text"`
	OfferToken   string `gorm:"size:64"`
	CreatedAt    time.Time
	LastStatusAt time.Time
	SentAt       *time.Time
	SubmittedAt  *time.Time

	RFQ RFQ `gorm:"foreignKey:RFQID"`
}
