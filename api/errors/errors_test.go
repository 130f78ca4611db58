package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/services/email"
)

func TestMultiErrors(t *testing.T) {
	errs := NewMultiErrors()
	assert.False(t, errs.HasErrors())

	errs.Add("toAddresses", "please provide at least one valid to address", email.ErrRecipientsMissing)
	errs.Add("subject", "please provide an email subject", email.ErrEmptySubject)
	errs.Add("subject", "subject is too long", nil)

	assert.True(t, errs.HasErrors())
	assert.Equal(t, "toAddresses: please provide at least one valid to address | subject: please provide an email subject | subject: subject is too long", errs.Error())
	assert.Equal(t, map[string][]string{
		"toAddresses": {"please provide at least one valid to address"},
		"subject":     {"please provide an email subject", "subject is too long"},
	}, errs.Fields())
	assert.ErrorIs(t, errs, email.ErrEmptySubject)
	assert.ErrorIs(t, errs, email.ErrRecipientsMissing)
}

func TestRespondWithValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	errs := NewMultiErrors()
	errs.Add("body", "please provide a valid html or text body (or both)", email.ErrEmptyEmailBody)

	RespondWithValidationErrors(c, opentracing.NoopTracer{}.StartSpan("test"), errs)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Validation failed","fields":{"body":["please provide a valid html or text body (or both)"]}}`, w.Body.String())
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"email missing", leadstack_errors.ErrEmailNotFound, http.StatusNotFound},
		{"wrapped record missing", pkgerrors.Wrap(repository.ErrNotFound, "customer c1"), http.StatusNotFound},
		{"bad folder", leadstack_errors.ErrInvalidFolder, http.StatusBadRequest},
		{"bad recipient", email.ErrInvalidEmail, http.StatusBadRequest},
		{"already imported", leadstack_errors.ErrAlreadyImported, http.StatusConflict},
		{"duplicate", pkgerrors.Wrap(leadstack_errors.ErrDuplicateCustomer, "retry"), http.StatusConflict},
		{"no smtp", email.ErrSenderMissing, http.StatusServiceUnavailable},
		{"no legacy source", leadstack_errors.ErrLegacySourceAbsent, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestRespondWithServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	span := opentracing.NoopTracer{}.StartSpan("test")

	RespondWithServiceError(c, span, "Failed to load email", leadstack_errors.ErrEmailNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Failed to load email","details":"email not found"}`, w.Body.String())
}
