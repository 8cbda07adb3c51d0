// Package alert persists needs-action findings and pushes them to the
// configured notification platform.
package alert

import (
	"errors"
	"fmt"
	"time"

	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/gorm"
)

// Record stores a needs-action finding for a destination. At most one open
// alert exists per (destination, reason): if one is already open, it is
// returned with created=false and nothing is written, so repeated sweeps
// don't re-notify staff about the same condition.
func Record(db *gorm.DB, d models.Destination, reason sla.Reason, message string) (*models.Alert, bool, error) {
	if d.ID == "" {
		return nil, false, fmt.Errorf("alert: destination ID is required")
	}
	if reason == "" {
		return nil, false, fmt.Errorf("alert: reason is required")
	}

	var existing models.Alert
	err := db.Where("destination_id = ? AND reason = ? AND acknowledged = ?", d.ID, string(reason), false).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("alert: check open alert for %s: %w", d.ID, err)
	}

	a := models.Alert{
		DestinationID: d.ID,
		RFQID:         d.RFQID,
		Reason:        string(reason),
		Message:       message,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, false, fmt.Errorf("alert: record for %s: %w", d.ID, err)
	}
	return &a, true, nil
}

// Open returns unacknowledged alerts, oldest first.
func Open(db *gorm.DB) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := db.Where("acknowledged = ?", false).Order("created_at ASC, id ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("alert: list open: %w", err)
	}
	return alerts, nil
}

// Acknowledge marks a single alert as handled.
func Acknowledge(db *gorm.DB, id uint) error {
	result := db.Model(&models.Alert{}).Where("id = ?", id).Update("acknowledged", true)
	if result.Error != nil {
		return fmt.Errorf("alert: acknowledge %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("alert: not found: %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// AcknowledgeDestination closes every open alert for a destination, e.g.
// after staff resolved its error or the provider finally replied.
func AcknowledgeDestination(db *gorm.DB, destinationID string) error {
	if destinationID == "" {
		return fmt.Errorf("alert: destination ID is required")
	}
	err := db.Model(&models.Alert{}).
		Where("destination_id = ? AND acknowledged = ?", destinationID, false).
		Update("acknowledged", true).Error
	if err != nil {
		return fmt.Errorf("alert: acknowledge destination %s: %w", destinationID, err)
	}
	return nil
}
