package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partforge/quotewire/internal/alert"
	"github.com/partforge/quotewire/internal/bulk"
	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/inbox"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/outreach"
	"github.com/partforge/quotewire/internal/sla"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, gen outreach.Generator, th sla.Thresholds) {
	api := router.Group("/api")

	api.GET("/inbox", handleInbox(db, th))
	api.GET("/rfqs/:id/destinations", handleRFQDetail(db, th))
	api.POST("/destinations/:id/transition", handleTransition(db))
	api.POST("/bulk", handleBulk(db, gen))
	api.GET("/alerts", handleAlerts(db))
	api.POST("/alerts/:id/ack", handleAckAlert(db))
	api.GET("/events", handleSSE(db))
}

// rowView is the JSON shape of one inbox row.
type rowView struct {
	RFQID            string         `json:"rfq_id"`
	Reference        string         `json:"reference"`
	CustomerName     string         `json:"customer_name"`
	StatusCounts     map[string]int `json:"status_counts"`
	Total            int            `json:"total"`
	NeedsActionCount int            `json:"needs_action_count"`
	Reasons          []string       `json:"reasons"`
	LastActivity     time.Time      `json:"last_activity"`
	AnomalyCount     int            `json:"anomaly_count,omitempty"`
}

func toRowView(r inbox.Row) rowView {
	counts := make(map[string]int, len(r.StatusCounts))
	for s, n := range r.StatusCounts {
		counts[string(s)] = n
	}
	reasons := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		reasons[i] = string(reason)
	}
	return rowView{
		RFQID:            r.RFQID,
		Reference:        r.Reference,
		CustomerName:     r.CustomerName,
		StatusCounts:     counts,
		Total:            r.Total,
		NeedsActionCount: r.NeedsActionCount,
		Reasons:          reasons,
		LastActivity:     r.LastActivity,
		AnomalyCount:     r.AnomalyCount,
	}
}

func handleInbox(db *gorm.DB, th sla.Thresholds) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := inbox.LoadRows(db, time.Now(), th)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]rowView, len(rows))
		for i, r := range rows {
			views[i] = toRowView(r)
		}
		c.JSON(http.StatusOK, gin.H{"rows": views})
	}
}

// destinationView is the JSON shape of one destination with its verdict.
type destinationView struct {
	ID           string     `json:"id"`
	ProviderID   string     `json:"provider_id"`
	ProviderName string     `json:"provider_name,omitempty"`
	Status       string     `json:"status"`
	DispatchMode string     `json:"dispatch_mode"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastStatusAt time.Time  `json:"last_status_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	NeedsAction  bool       `json:"needs_action"`
	Reason       string     `json:"reason,omitempty"`
}

func toDestinationView(v inbox.DestinationView) destinationView {
	d := v.Destination
	return destinationView{
		ID:           d.ID,
		ProviderID:   d.ProviderID,
		ProviderName: d.ProviderName,
		Status:       d.Status,
		DispatchMode: d.DispatchMode,
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		LastStatusAt: d.LastStatusAt,
		SentAt:       d.SentAt,
		SubmittedAt:  d.SubmittedAt,
		NeedsAction:  v.Verdict.NeedsAction,
		Reason:       string(v.Verdict.Reason),
	}
}

func handleRFQDetail(db *gorm.DB, th sla.Thresholds) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfqID := c.Param("id")
		var r models.RFQ
		if err := db.Where("id = ?", rfqID).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "rfq not found: " + rfqID})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		views, err := inbox.LoadDetail(db, rfqID, time.Now(), th)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]destinationView, len(views))
		for i, v := range views {
			out[i] = toDestinationView(v)
		}
		c.JSON(http.StatusOK, gin.H{
			"rfq_id":       r.ID,
			"reference":    r.Reference,
			"destinations": out,
		})
	}
}

// transitionRequest is the body for a single-destination status change.
type transitionRequest struct {
	Status          string `json:"status" binding:"required"`
	ErrorMessage    string `json:"error_message"`
	SubmissionNotes string `json:"submission_notes"`
}

func handleTransition(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		target := destination.Status(req.Status)
		if !target.Known() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + req.Status})
			return
		}

		dest, err := destination.Transition(db, c.Param("id"), target, destination.TransitionContext{
			ErrorMessage:    req.ErrorMessage,
			SubmissionNotes: req.SubmissionNotes,
		})
		if err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusOK, toDestinationView(inbox.DestinationView{Destination: *dest}))
	}
}

// bulkRequest is the body for a batch action over selected destinations.
type bulkRequest struct {
	Action         string   `json:"action" binding:"required"`
	DestinationIDs []string `json:"destination_ids" binding:"required"`
	Concurrency    int      `json:"concurrency"`
	ErrorNote      string   `json:"error_note"`
}

// bulkResultView is the JSON shape of one positional batch result.
type bulkResultView struct {
	DestinationID string                        `json:"destination_id"`
	Provider      string                        `json:"provider"`
	Status        string                        `json:"status"`
	Message       string                        `json:"message,omitempty"`
	Email         *outreach.EmailContent        `json:"email,omitempty"`
	WebForm       *outreach.WebFormInstructions `json:"web_form,omitempty"`
}

func handleBulk(db *gorm.DB, gen outreach.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
		if len(req.DestinationIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "destination_ids must not be empty"})
			return
		}

		dests, err := loadSelection(db, req.DestinationIDs)
		if err != nil {
			writeActionError(c, err)
			return
		}

		results, err := bulk.RunBatch(db, gen, dests, bulk.Kind(req.Action), bulk.BatchOpts{
			Concurrency: req.Concurrency,
			ErrorNote:   req.ErrorNote,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		views := make([]bulkResultView, len(results))
		for i, r := range results {
			views[i] = bulkResultView{
				DestinationID: r.DestinationID,
				Provider:      r.ProviderLabel,
				Status:        string(r.Status),
				Message:       r.Message,
				Email:         r.Email,
				WebForm:       r.WebForm,
			}
		}
		summary := bulk.Summarize(results)
		c.JSON(http.StatusOK, gin.H{
			"results": views,
			"summary": gin.H{
				"success": summary.Success,
				"errors":  summary.Errors,
				"skipped": summary.Skipped,
			},
		})
	}
}

// loadSelection fetches the selected destinations in request order, so batch
// results line up with the IDs the client sent.
func loadSelection(db *gorm.DB, ids []string) ([]models.Destination, error) {
	var found []models.Destination
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Destination, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	dests := make([]models.Destination, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		dests = append(dests, d)
	}
	return dests, nil
}

// alertView is the JSON shape of one open alert.
type alertView struct {
	ID            uint      `json:"id"`
	DestinationID string    `json:"destination_id"`
	RFQID         string    `json:"rfq_id"`
	Reason        string    `json:"reason"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

func handleAlerts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		open, err := alert.Open(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]alertView, len(open))
		for i, a := range open {
			views[i] = alertView{
				ID:            a.ID,
				DestinationID: a.DestinationID,
				RFQID:         a.RFQID,
				Reason:        a.Reason,
				Message:       a.Message,
				CreatedAt:     a.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{"alerts": views})
	}
}

func handleAckAlert(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id: " + c.Param("id")})
			return
		}
		if err := alert.Acknowledge(db, uint(id)); err != nil {
			writeActionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"acknowledged": id})
	}
}

// writeActionError maps domain errors to HTTP statuses: transition table
// rejections are 422, missing inputs are 400, missing rows are 404.
func writeActionError(c *gin.Context, err error) {
	var invalid *destination.InvalidTransitionError
	var validation *destination.ValidationError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
