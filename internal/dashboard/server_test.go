package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partforge/quotewire/internal/config"
	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/outreach"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var defaults = sla.FromHours(24, 72)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.RFQ{}, &models.Destination{}, &models.Offer{}, &models.Alert{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gen := outreach.NewTemplateGenerator(config.OutreachConfig{
		FromName:      "Partforge Sourcing",
		ReplyTo:       "quotes@partforge.example",
		PortalBaseURL: "https://quotes.partforge.example",
	})
	return newRouter(db, gen, defaults)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedRFQ(t *testing.T, db *gorm.DB, id, ref string) {
	t.Helper()
	r := models.RFQ{ID: id, Reference: ref, CustomerName: "Acme Corp", CreatedAt: time.Now()}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
}

func seedDest(t *testing.T, db *gorm.DB, id, rfqID string, status destination.Status, mode destination.DispatchMode) {
	t.Helper()
	now := time.Now()
	d := models.Destination{
		ID: id, RFQID: rfqID, ProviderID: "prov-" + id, ProviderName: "Shop " + id,
		Status: string(status), DispatchMode: string(mode), OfferToken: "tok" + id,
		CreatedAt: now, LastStatusAt: now,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed dest: %v", err)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestInbox_Empty(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodGet, "/api/inbox", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Rows []rowView `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(resp.Rows))
	}
}

func TestInbox_ReturnsRows(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusQueued, destination.ModeEmail)
	seedDest(t, db, "dst-00002", "rfq-aaaaa", destination.StatusSent, destination.ModeEmail)

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodGet, "/api/inbox", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Rows []rowView `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(resp.Rows))
	}
	row := resp.Rows[0]
	if row.RFQID != "rfq-aaaaa" || row.Total != 2 {
		t.Errorf("row = %+v, want rfq-aaaaa with 2 destinations", row)
	}
	if row.StatusCounts["queued"] != 1 || row.StatusCounts["sent"] != 1 {
		t.Errorf("status counts = %v", row.StatusCounts)
	}
	if len(row.StatusCounts) != len(destination.AllStatuses) {
		t.Errorf("status counts has %d keys, want all %d statuses", len(row.StatusCounts), len(destination.AllStatuses))
	}
}

func TestRFQDetail_NotFound(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodGet, "/api/rfqs/rfq-nosuch/destinations", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRFQDetail_ReturnsDestinations(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodGet, "/api/rfqs/rfq-aaaaa/destinations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		RFQID        string            `json:"rfq_id"`
		Destinations []destinationView `json:"destinations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Destinations) != 1 || resp.Destinations[0].ID != "dst-00001" {
		t.Errorf("destinations = %+v", resp.Destinations)
	}
}

func TestTransition_Success(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodPost, "/api/destinations/dst-00001/transition", `{"status":"queued"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var d models.Destination
	if err := db.Where("id = ?", "dst-00001").First(&d).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.Status != "queued" {
		t.Errorf("status = %q, want queued", d.Status)
	}
}

func TestTransition_InvalidIs422(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodPost, "/api/destinations/dst-00001/transition", `{"status":"sent"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}
}

func TestTransition_MissingErrorMessageIs400(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusQueued, destination.ModeEmail)

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodPost, "/api/destinations/dst-00001/transition", `{"status":"error"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestTransition_UnknownDestinationIs404(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodPost, "/api/destinations/dst-nosuch/transition", `{"status":"queued"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTransition_UnknownStatusIs400(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodPost, "/api/destinations/dst-00001/transition", `{"status":"shipped"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBulk_DraftOutreach(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)
	seedDest(t, db, "dst-00002", "rfq-aaaaa", destination.StatusDraft, destination.ModeWebForm)

	router := testRouter(t, db)
	body := `{"action":"draft_outreach","destination_ids":["dst-00001","dst-00002"]}`
	w := doJSON(t, router, http.MethodPost, "/api/bulk", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []bulkResultView `json:"results"`
		Summary struct {
			Success int `json:"success"`
			Errors  int `json:"errors"`
			Skipped int `json:"skipped"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Status != "success" || resp.Results[0].Email == nil {
		t.Errorf("result[0] = %+v, want success with email", resp.Results[0])
	}
	if resp.Results[1].Status != "skipped" {
		t.Errorf("result[1] = %+v, want skipped for web_form destination", resp.Results[1])
	}
	if resp.Summary.Success != 1 || resp.Summary.Skipped != 1 {
		t.Errorf("summary = %+v", resp.Summary)
	}
}

func TestBulk_UnknownIDIs404(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)

	router := testRouter(t, db)
	body := `{"action":"mark_sent","destination_ids":["dst-00001","dst-nosuch"]}`
	w := doJSON(t, router, http.MethodPost, "/api/bulk", body)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404, body %s", w.Code, w.Body.String())
	}
}

func TestBulk_UnknownActionIs400(t *testing.T) {
	db := testDB(t)
	seedRFQ(t, db, "rfq-aaaaa", "RFQ-2026-001")
	seedDest(t, db, "dst-00001", "rfq-aaaaa", destination.StatusDraft, destination.ModeEmail)

	router := testRouter(t, db)
	body := `{"action":"teleport","destination_ids":["dst-00001"]}`
	w := doJSON(t, router, http.MethodPost, "/api/bulk", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestAlerts_ListAndAck(t *testing.T) {
	db := testDB(t)
	a := models.Alert{DestinationID: "dst-00001", RFQID: "rfq-aaaaa", Reason: "error", Message: "bounced", CreatedAt: time.Now()}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed alert: %v", err)
	}

	router := testRouter(t, db)
	w := doJSON(t, router, http.MethodGet, "/api/alerts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Alerts []alertView `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(resp.Alerts))
	}

	w = doJSON(t, router, http.MethodPost, "/api/alerts/1/ack", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ack status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/alerts", "")
	resp.Alerts = nil
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Alerts) != 0 {
		t.Errorf("alerts after ack = %d, want 0", len(resp.Alerts))
	}
}

func TestAckAlert_NotFound(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodPost, "/api/alerts/99/ack", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAckAlert_BadID(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodPost, "/api/alerts/abc/ack", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSSE_SendsConnected(t *testing.T) {
	router := testRouter(t, testDB(t))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	ct := w.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, want text/event-stream", ct)
	}
	if !strings.Contains(w.Body.String(), "event: connected") {
		t.Errorf("body = %q, want connected event", w.Body.String())
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	router := testRouter(t, testDB(t))
	w := doJSON(t, router, http.MethodGet, "/api/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
