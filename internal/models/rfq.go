package models

import "time"

// RFQ is a customer's request for quotation. Destinations and offers hang
// off it; the engine reads it only for identity and creation time.
type RFQ struct {
	ID           string `gorm:"primaryKey;size:32"`
	Reference    string `gorm:"size:64;index"`
	CustomerName string `gorm:"size:128"`
	Notes        string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Destinations []Destination `gorm:"foreignKey:RFQID"`
	Offers       []Offer       `gorm:"foreignKey:RFQID"`
}

// TableName pins the table name; GORM's pluralizer mangles all-caps names.
func (RFQ) TableName() string { return "rfqs" }
