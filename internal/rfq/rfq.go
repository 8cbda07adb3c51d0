// Package rfq provides RFQ record operations.
package rfq

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/partforge/quotewire/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new RFQ.
type CreateOpts struct {
	Reference    string
	CustomerName string
	Notes        string
}

// GenerateID creates a unique RFQ ID in rfq-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rfq: generate ID: %w", err)
	}
	return "rfq-" + hex.EncodeToString(b)[:5], nil
}

// Create creates a new RFQ with an auto-generated ID.
func Create(db *gorm.DB, opts CreateOpts) (*models.RFQ, error) {
	if opts.Reference == "" {
		return nil, fmt.Errorf("rfq: reference is required")
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	r := models.RFQ{
		ID:           id,
		Reference:    opts.Reference,
		CustomerName: opts.CustomerName,
		Notes:        opts.Notes,
	}
	if err := db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("rfq: create: %w", err)
	}
	return &r, nil
}

// Get retrieves an RFQ by ID.
func Get(db *gorm.DB, id string) (*models.RFQ, error) {
	var r models.RFQ
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rfq: not found: %s", id)
		}
		return nil, fmt.Errorf("rfq: get %s: %w", id, err)
	}
	return &r, nil
}

// List returns all RFQs, newest first.
func List(db *gorm.DB) ([]models.RFQ, error) {
	var rfqs []models.RFQ
	if err := db.Order("created_at DESC, id ASC").Find(&rfqs).Error; err != nil {
		return nil, fmt.Errorf("rfq: list: %w", err)
	}
	return rfqs, nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for range 2 {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.RFQ{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("rfq: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("rfq: failed to generate unique ID after retries")
}
