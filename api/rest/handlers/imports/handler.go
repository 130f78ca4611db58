package imports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/tracing"
)

// ImportsHandler serves the failed import triage list.
type ImportsHandler struct {
	importer interfaces.CustomerImportService
}

func NewImportsHandler(importer interfaces.CustomerImportService) *ImportsHandler {
	return &ImportsHandler{importer: importer}
}

type RetryRequest struct {
	IDs         []string `json:"ids" binding:"required,min=1"`
	LenientMode bool     `json:"lenientMode"`
}

func (h *ImportsHandler) ListFailed() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportsHandler.ListFailed", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var query struct {
			Limit int `form:"limit"`
		}
		if err := c.ShouldBindQuery(&query); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid query", err)
			return
		}

		failed, err := h.importer.ListFailedImports(ctx, query.Limit)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to list failed imports", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"failedImports": failed})
	}
}

// Retry re-parses the selected failed imports and reports per-item outcomes.
func (h *ImportsHandler) Retry() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportsHandler.Retry", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request RetryRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		span.SetTag("lenient", request.LenientMode)

		result, err := h.importer.RetryFailedImports(ctx, request.IDs, request.LenientMode)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to retry imports", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (h *ImportsHandler) Dismiss() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ImportsHandler.Dismiss", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if err := h.importer.DismissFailedImport(ctx, c.Param("id")); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to dismiss import", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
