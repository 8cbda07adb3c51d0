package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/partforge/quotewire/internal/models"
	"gorm.io/gorm"
)

// alertEvent holds data for an alert SSE event.
type alertEvent struct {
	ID            uint   `json:"id"`
	DestinationID string `json:"destination_id"`
	RFQID         string `json:"rfq_id"`
	Reason        string `json:"reason"`
	Message       string `json:"message"`
	Count         int64  `json:"count"`
}

// handleSSE streams new open alerts to connected dashboards by polling the
// alert table. Staff see a sweep's findings without refreshing.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		if db == nil {
			return
		}

		// Only alerts created after the connection opened are pushed; the
		// backlog is available via GET /api/alerts.
		var lastSeenID uint
		var latest models.Alert
		if err := db.Where("acknowledged = ?", false).
			Order("id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var fresh []models.Alert
				db.Where("acknowledged = ? AND id > ?", false, lastSeenID).
					Order("id ASC").
					Find(&fresh)

				if len(fresh) == 0 {
					continue
				}
				lastSeenID = fresh[len(fresh)-1].ID

				var count int64
				db.Model(&models.Alert{}).
					Where("acknowledged = ?", false).
					Count(&count)

				newest := fresh[len(fresh)-1]
				writeSSE(c.Writer, "alert", alertEvent{
					ID:            newest.ID,
					DestinationID: newest.DestinationID,
					RFQID:         newest.RFQID,
					Reason:        newest.Reason,
					Message:       newest.Message,
					Count:         count,
				})
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
