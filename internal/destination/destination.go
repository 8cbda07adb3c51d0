// Package destination provides destination lifecycle operations: creation,
// lookup, and the single transition table every other component consumes.
package destination

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/partforge/quotewire/internal/models"
	"gorm.io/gorm"
)

// MinSubmissionNotesLen is the minimum length for submission notes.
const MinSubmissionNotesLen = 5

// CreateOpts holds parameters for adding a provider to an RFQ.
type CreateOpts struct {
	RFQID        string
	ProviderID   string
	ProviderName string
	DispatchMode DispatchMode
}

// ListFilters holds optional filters for listing destinations.
type ListFilters struct {
	RFQID      string
	ProviderID string
	Status     Status
	Mode       DispatchMode
}

// TransitionContext carries per-transition inputs. Now is injected so
// transitions are testable without mocking the system clock; the zero value
// means wall-clock time.
type TransitionContext struct {
	Now             time.Time
	ErrorMessage    string // required when the target is error
	SubmissionNotes string // required, min 5 chars, when the target is submitted
}

// GenerateID creates a unique destination ID in dst-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("destination: generate ID: %w", err)
	}
	return "dst-" + hex.EncodeToString(b)[:5], nil
}

// GenerateOfferToken creates an opaque token for the public offer-submission
// link of a destination.
func GenerateOfferToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("destination: generate offer token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create adds a provider destination to an RFQ in the draft state.
func Create(db *gorm.DB, opts CreateOpts) (*models.Destination, error) {
	if opts.RFQID == "" {
		return nil, fmt.Errorf("destination: rfq ID is required")
	}
	if opts.ProviderID == "" {
		return nil, fmt.Errorf("destination: provider ID is required")
	}
	if opts.DispatchMode == "" {
		opts.DispatchMode = ModeEmail
	}
	if !KnownMode(opts.DispatchMode) {
		return nil, fmt.Errorf("destination: unknown dispatch mode %q", opts.DispatchMode)
	}

	var count int64
	if err := db.Model(&models.RFQ{}).Where("id = ?", opts.RFQID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("destination: check rfq %s: %w", opts.RFQID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("destination: rfq not found: %s", opts.RFQID)
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}
	token, err := GenerateOfferToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dest := models.Destination{
		ID:           id,
		RFQID:        opts.RFQID,
		ProviderID:   opts.ProviderID,
		ProviderName: opts.ProviderName,
		Status:       string(StatusDraft),
		DispatchMode: string(opts.DispatchMode),
		OfferToken:   token,
		CreatedAt:    now,
		LastStatusAt: now,
	}

	if err := db.Create(&dest).Error; err != nil {
		return nil, fmt.Errorf("destination: create: %w", err)
	}
	return &dest, nil
}

// Get retrieves a destination by ID.
func Get(db *gorm.DB, id string) (*models.Destination, error) {
	var dest models.Destination
	if err := db.Where("id = ?", id).First(&dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("destination: not found: %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("destination: get %s: %w", id, err)
	}
	return &dest, nil
}

// List returns destinations matching the given filters, ordered by creation time.
func List(db *gorm.DB, filters ListFilters) ([]models.Destination, error) {
	q := db.Model(&models.Destination{})

	if filters.RFQID != "" {
		q = q.Where("rfq_id = ?", filters.RFQID)
	}
	if filters.ProviderID != "" {
		q = q.Where("provider_id = ?", filters.ProviderID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", string(filters.Status))
	}
	if filters.Mode != "" {
		q = q.Where("dispatch_mode = ?", string(filters.Mode))
	}

	var dests []models.Destination
	if err := q.Order("created_at ASC, id ASC").Find(&dests).Error; err != nil {
		return nil, fmt.Errorf("destination: list: %w", err)
	}
	return dests, nil
}

// Apply validates the transition and returns the updated snapshot. Pure: it
// never touches the store, so a rejection cannot leave a partial write.
func Apply(d models.Destination, target Status, ctx TransitionContext) (models.Destination, error) {
	from := Status(d.Status)
	if !IsValidTransition(from, target) {
		return d, &InvalidTransitionError{From: from, To: target}
	}

	switch target {
	case StatusError:
		if ctx.ErrorMessage == "" {
			return d, &ValidationError{Field: "error message", Reason: "is required when marking a destination as errored"}
		}
	case StatusSubmitted:
		if len(ctx.SubmissionNotes) < MinSubmissionNotesLen {
			return d, &ValidationError{
				Field:  "submission notes",
				Reason: fmt.Sprintf("must be at least %d characters", MinSubmissionNotesLen),
			}
		}
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	d.Status = string(target)
	d.LastStatusAt = now
	if target == StatusSent && d.SentAt == nil {
		d.SentAt = &now
	}
	if target == StatusSubmitted {
		d.SubmittedAt = &now
	}
	if target == StatusError {
		d.ErrorMessage = ctx.ErrorMessage
	} else {
		d.ErrorMessage = ""
	}
	return d, nil
}

// Transition loads a destination, applies the requested status change, and
// persists the new snapshot. The write targets a single row; serialization
// of concurrent writes to the same row is the database's job.
func Transition(db *gorm.DB, id string, target Status, ctx TransitionContext) (*models.Destination, error) {
	dest, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updated, err := Apply(*dest, target, ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         updated.Status,
		"last_status_at": updated.LastStatusAt,
		"sent_at":        updated.SentAt,
		"submitted_at":   updated.SubmittedAt,
		"error_message":  updated.ErrorMessage,
	}
	if err := db.Model(&models.Destination{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("destination: transition %s to %s: %w", id, target, err)
	}
	return &updated, nil
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for range 2 {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Destination{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("destination: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("destination: failed to generate unique ID after retries")
}
