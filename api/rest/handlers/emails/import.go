package emails

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	"github.com/relocrm/leadstack/dto"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/tracing"
)

type ImportRequest struct {
	// Parsed carries the operator-corrected data; empty means import what the parser extracts.
	Parsed *dto.ParsedCustomerData `json:"parsed"`
}

// Parse returns the approval dialog preview of an email.
func (h *EmailsHandler) Parse() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Parse", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		preview, err := h.importer.Preview(ctx, c.Param("id"))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to parse email", err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func (h *EmailsHandler) Import() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Import", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request ImportRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}

		customerID, err := h.importer.ConfirmImport(ctx, c.Param("id"), request.Parsed)
		if errors.Is(err, leadstack_errors.ErrAlreadyImported) {
			c.JSON(http.StatusConflict, gin.H{
				"error":      "Email already imported",
				"customerId": customerID,
			})
			return
		}
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to import customer", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customerId": customerID})
	}
}
