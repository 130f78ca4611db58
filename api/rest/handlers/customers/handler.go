package customers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
)

const defaultPageSize = 50

type CustomersHandler struct {
	repositories *repository.Repositories
}

func NewCustomersHandler(repositories *repository.Repositories) *CustomersHandler {
	return &CustomersHandler{repositories: repositories}
}

func (h *CustomersHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CustomersHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var query struct {
			Limit  int `form:"limit"`
			Offset int `form:"offset"`
		}
		if err := c.ShouldBindQuery(&query); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid query", err)
			return
		}
		if query.Limit <= 0 {
			query.Limit = defaultPageSize
		}

		customers, total, err := h.repositories.CustomerRepository.List(ctx, query.Limit, query.Offset)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to list customers", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customers": customers, "total": total})
	}
}

// Get returns a customer with its quotes and invoices.
func (h *CustomersHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CustomersHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		customer, err := h.repositories.CustomerRepository.GetByID(ctx, id)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load customer", err)
			return
		}
		if customer == nil {
			custom_err.RespondWithError(c, span, http.StatusNotFound, "Customer not found", leadstack_errors.ErrCustomerNotFound)
			return
		}

		quotes, err := h.repositories.QuoteRepository.ListByCustomer(ctx, id)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load quotes", err)
			return
		}
		invoices, err := h.repositories.InvoiceRepository.ListByCustomer(ctx, id)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load invoices", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"customer": customer,
			"quotes":   quotes,
			"invoices": invoices,
		})
	}
}
