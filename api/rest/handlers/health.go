package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/tracing"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status returns the auto-sync state and where each mailbox folder's sync left off
func Status(autoSync interfaces.AutoSyncService, syncStates interfaces.MailboxSyncRepository, mailboxID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "Status", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		states, err := syncStates.GetMailboxSyncStates(ctx, mailboxID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sync state", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"autoSync": gin.H{
				"status":  autoSync.Status(),
				"running": autoSync.IsRunning(),
				"enabled": autoSync.Enabled(ctx),
			},
			"mailbox": gin.H{
				"id":      mailboxID,
				"folders": states,
			},
		})
	}
}
