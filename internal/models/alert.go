package models

import "time"

// Alert records a needs-action finding from an SLA sweep. At most one open
// alert exists per (destination, reason) pair; acknowledging closes it.
type Alert struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	DestinationID string `gorm:"size:32;not null;index"`
	RFQID         string `gorm:"size:32;index"`
	Reason        string `gorm:"size:24;not null"`
	Message       string `gorm:"type:text"`
	Acknowledged  bool   `gorm:"default:false;index"`
	CreatedAt     time.Time
}
