package autosync

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/tracing"
)

type AutoSyncHandler struct {
	autoSync interfaces.AutoSyncService
}

func NewAutoSyncHandler(autoSync interfaces.AutoSyncService) *AutoSyncHandler {
	return &AutoSyncHandler{autoSync: autoSync}
}

type StartRequest struct {
	IntervalMinutes int `json:"intervalMinutes" binding:"min=0"`
}

func (h *AutoSyncHandler) state(ctx context.Context) gin.H {
	return gin.H{
		"status":    h.autoSync.Status(),
		"running":   h.autoSync.IsRunning(),
		"enabled":   h.autoSync.Enabled(ctx),
		"needsSync": h.autoSync.NeedsSync(),
	}
}

func (h *AutoSyncHandler) Status() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutoSyncHandler.Status", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		c.JSON(http.StatusOK, h.state(ctx))
	}
}

// Run performs one pass and waits for it. A pass already in flight is not repeated.
func (h *AutoSyncHandler) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutoSyncHandler.Run", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		status := h.autoSync.SyncNow(context.WithoutCancel(ctx))
		c.JSON(http.StatusOK, status)
	}
}

func (h *AutoSyncHandler) Start() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutoSyncHandler.Start", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request StartRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}

		interval := time.Duration(request.IntervalMinutes) * time.Minute
		if err := h.autoSync.Start(context.WithoutCancel(ctx), interval); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to start auto-sync", err)
			return
		}
		c.JSON(http.StatusOK, h.state(ctx))
	}
}

func (h *AutoSyncHandler) Stop() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutoSyncHandler.Stop", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		h.autoSync.Stop()
		c.JSON(http.StatusOK, h.state(ctx))
	}
}
