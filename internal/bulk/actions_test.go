package bulk

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/partforge/quotewire/internal/config"
	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/outreach"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.RFQ{}, &models.Destination{}, &models.Offer{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Create(&models.RFQ{ID: "rfq-1", Reference: "REF-1", CustomerName: "Acme"}).Error; err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
	return db
}

func seedDest(t *testing.T, db *gorm.DB, id string, status destination.Status, mode destination.DispatchMode) models.Destination {
	t.Helper()
	now := time.Now()
	d := models.Destination{
		ID: id, RFQID: "rfq-1", ProviderID: "prov-" + id, ProviderName: "Shop " + id,
		Status: string(status), DispatchMode: string(mode),
		OfferToken: "token-" + id,
		CreatedAt:  now, LastStatusAt: now,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed destination %s: %v", id, err)
	}
	return d
}

func realGen() outreach.Generator {
	return outreach.NewTemplateGenerator(config.OutreachConfig{
		FromName:      "Quotewire",
		ReplyTo:       "rfq@example.com",
		PortalBaseURL: "https://portal.example.com",
	})
}

// failingGen fails EmailContent for configured destination IDs.
type failingGen struct {
	inner   outreach.Generator
	failFor map[string]bool
}

func (g *failingGen) EmailContent(rfq models.RFQ, d models.Destination) (outreach.EmailContent, error) {
	if g.failFor[d.ID] {
		return outreach.EmailContent{}, fmt.Errorf("generator unavailable for %s", d.ID)
	}
	return g.inner.EmailContent(rfq, d)
}

func (g *failingGen) WebFormInstructions(rfq models.RFQ, d models.Destination) (outreach.WebFormInstructions, error) {
	return g.inner.WebFormInstructions(rfq, d)
}

func TestRunBatch_DraftOutreach(t *testing.T) {
	db := testDB(t)
	dests := []models.Destination{
		seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00002", destination.StatusQueued, destination.ModeWebForm),
		seedDest(t, db, "dst-00003", destination.StatusQueued, destination.ModeEmail),
	}

	results, err := RunBatch(db, realGen(), dests, KindDraftOutreach, BatchOpts{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if results[0].Status != ResultSuccess || results[0].Email == nil {
		t.Errorf("results[0] = %+v, want success with email payload", results[0])
	}
	if results[1].Status != ResultSkipped {
		t.Errorf("results[1].Status = %q, want skipped", results[1].Status)
	}
	if results[1].Message != "email only." {
		t.Errorf("results[1].Message = %q, want %q", results[1].Message, "email only.")
	}
	if results[1].Email != nil {
		t.Error("skipped item must not carry a payload")
	}
	if results[2].Status != ResultSuccess {
		t.Errorf("results[2].Status = %q, want success", results[2].Status)
	}
	if !strings.Contains(results[0].Email.Body, "token-dst-00001") {
		t.Error("generated email should embed the destination's offer token")
	}
}

func TestRunBatch_ScenarioMixedFailures(t *testing.T) {
	db := testDB(t)
	dests := []models.Destination{
		seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00002", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00003", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00004", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00005", destination.StatusQueued, destination.ModeEmail),
	}
	gen := &failingGen{inner: realGen(), failFor: map[string]bool{"dst-00001": true, "dst-00003": true}}

	results, err := RunBatch(db, gen, dests, KindDraftOutreach, BatchOpts{Concurrency: 3})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	want := []ResultStatus{ResultError, ResultSuccess, ResultError, ResultSuccess, ResultSuccess}
	for i, w := range want {
		if results[i].Status != w {
			t.Errorf("results[%d].Status = %q, want %q", i, results[i].Status, w)
		}
	}

	s := Summarize(results)
	if s.Success != 3 || s.Errors != 2 || s.Skipped != 0 {
		t.Errorf("summary = %+v, want 3/2/0", s)
	}
}

func TestRunBatch_WebFormInstructions(t *testing.T) {
	db := testDB(t)
	dests := []models.Destination{
		seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeWebForm),
		seedDest(t, db, "dst-00002", destination.StatusQueued, destination.ModeAPI),
	}

	results, err := RunBatch(db, realGen(), dests, KindWebFormInstructions, BatchOpts{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if results[0].Status != ResultSuccess || results[0].WebForm == nil {
		t.Errorf("results[0] = %+v, want success with web form payload", results[0])
	}
	if results[1].Status != ResultSkipped || results[1].Message != "web form only." {
		t.Errorf("results[1] = %+v, want skipped with mode message", results[1])
	}
}

func TestRunBatch_MarkSent(t *testing.T) {
	db := testDB(t)
	now := time.Now().Truncate(time.Second)
	dests := []models.Destination{
		seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00002", destination.StatusDraft, destination.ModeEmail), // invalid from draft
		seedDest(t, db, "dst-00003", destination.StatusQueued, destination.ModeWebForm),
	}

	results, err := RunBatch(db, nil, dests, KindMarkSent, BatchOpts{Now: now})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if results[0].Status != ResultSuccess {
		t.Errorf("results[0] = %+v, want success", results[0])
	}
	if results[1].Status != ResultError || !strings.Contains(results[1].Message, "invalid transition") {
		t.Errorf("results[1] = %+v, want invalid transition error", results[1])
	}
	if results[2].Status != ResultSuccess {
		t.Errorf("results[2] = %+v, want success (mark sent applies to all modes)", results[2])
	}

	// The failure must not abort sibling writes.
	var stored models.Destination
	db.Where("id = ?", "dst-00003").First(&stored)
	if stored.Status != string(destination.StatusSent) || stored.SentAt == nil {
		t.Errorf("dst-00003 stored = %+v, want sent with SentAt", stored)
	}
	var storedDraft models.Destination
	db.Where("id = ?", "dst-00002").First(&storedDraft)
	if storedDraft.Status != string(destination.StatusDraft) {
		t.Errorf("dst-00002 status = %q, want draft untouched", storedDraft.Status)
	}
}

func TestRunBatch_MarkError(t *testing.T) {
	db := testDB(t)
	dests := []models.Destination{
		seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeEmail),
		seedDest(t, db, "dst-00002", destination.StatusSent, destination.ModeEmail),
	}

	results, err := RunBatch(db, nil, dests, KindMarkError, BatchOpts{ErrorNote: "provider mailbox bounced"})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	for i, r := range results {
		if r.Status != ResultSuccess {
			t.Errorf("results[%d] = %+v, want success", i, r)
		}
	}

	var stored models.Destination
	db.Where("id = ?", "dst-00001").First(&stored)
	if stored.Status != string(destination.StatusError) || stored.ErrorMessage != "provider mailbox bounced" {
		t.Errorf("stored = %+v, want error with shared note", stored)
	}
}

func TestRunBatch_MarkErrorRequiresNote(t *testing.T) {
	db := testDB(t)
	_, err := RunBatch(db, nil, nil, KindMarkError, BatchOpts{})
	if err == nil || !strings.Contains(err.Error(), "error note is required") {
		t.Errorf("err = %v, want error note requirement", err)
	}
}

func TestRunBatch_ParameterValidation(t *testing.T) {
	db := testDB(t)

	if _, err := RunBatch(nil, nil, nil, KindMarkSent, BatchOpts{}); err == nil {
		t.Error("expected error for nil db")
	}
	if _, err := RunBatch(db, nil, nil, Kind("sing_a_song"), BatchOpts{}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := RunBatch(db, nil, nil, KindDraftOutreach, BatchOpts{}); err == nil {
		t.Error("expected error for missing generator")
	}
}

func TestRunBatch_EmptySelection(t *testing.T) {
	db := testDB(t)
	results, err := RunBatch(db, realGen(), nil, KindDraftOutreach, BatchOpts{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestRunBatch_ProviderLabels(t *testing.T) {
	db := testDB(t)
	named := seedDest(t, db, "dst-00001", destination.StatusQueued, destination.ModeEmail)
	unnamed := models.Destination{
		ID: "dst-00002", RFQID: "rfq-1", ProviderID: "prov-raw",
		Status: string(destination.StatusQueued), DispatchMode: string(destination.ModeEmail),
		OfferToken: "tok", CreatedAt: time.Now(), LastStatusAt: time.Now(),
	}
	if err := db.Create(&unnamed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	results, err := RunBatch(db, realGen(), []models.Destination{named, unnamed}, KindDraftOutreach, BatchOpts{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if results[0].ProviderLabel != "Shop dst-00001" {
		t.Errorf("ProviderLabel = %q, want provider name", results[0].ProviderLabel)
	}
	if results[1].ProviderLabel != "prov-raw" {
		t.Errorf("ProviderLabel = %q, want provider ID fallback", results[1].ProviderLabel)
	}
}
