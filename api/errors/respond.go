package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services/email"
)

// StatusCode maps a service error to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, leadstack_errors.ErrEmailNotFound),
		errors.Is(err, leadstack_errors.ErrCustomerNotFound),
		errors.Is(err, leadstack_errors.ErrFailedImportNotFound),
		errors.Is(err, leadstack_errors.ErrNotificationNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, leadstack_errors.ErrInvalidFolder),
		errors.Is(err, leadstack_errors.ErrInvalidNotification),
		errors.Is(err, leadstack_errors.ErrInvalidParsedData),
		errors.Is(err, leadstack_errors.ErrNoCustomerName),
		errors.Is(err, leadstack_errors.ErrUnparseable),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, email.ErrRecipientsMissing),
		errors.Is(err, email.ErrInvalidEmail),
		errors.Is(err, email.ErrEmptySubject),
		errors.Is(err, email.ErrEmptyEmailBody):
		return http.StatusBadRequest
	case errors.Is(err, leadstack_errors.ErrAlreadyImported),
		errors.Is(err, leadstack_errors.ErrDuplicateCustomer),
		errors.Is(err, leadstack_errors.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, leadstack_errors.ErrLegacySourceAbsent),
		errors.Is(err, leadstack_errors.ErrMailboxNotReady),
		errors.Is(err, email.ErrSenderMissing):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RespondWithError traces err and writes the standard error body.
func RespondWithError(c *gin.Context, span opentracing.Span, statusCode int, message string, err error) {
	tracing.TraceErr(span, err)
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(statusCode, body)
}

// RespondWithServiceError is RespondWithError with the status derived from err.
func RespondWithServiceError(c *gin.Context, span opentracing.Span, message string, err error) {
	RespondWithError(c, span, StatusCode(err), message, err)
}

// RespondWithValidationErrors answers 400 with the failed checks grouped by field.
func RespondWithValidationErrors(c *gin.Context, span opentracing.Span, errs *MultiErrors) {
	tracing.TraceErr(span, errs)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "Validation failed",
		"fields": errs.Fields(),
	})
}
