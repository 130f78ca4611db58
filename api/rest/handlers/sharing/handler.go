package sharing

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services/share_token"
)

// SharingHandler manages share links and serves the public view behind them.
type SharingHandler struct {
	tokens       interfaces.ShareTokenService
	repositories *repository.Repositories
}

func NewSharingHandler(tokens interfaces.ShareTokenService, repositories *repository.Repositories) *SharingHandler {
	return &SharingHandler{
		tokens:       tokens,
		repositories: repositories,
	}
}

type CreateRequest struct {
	CustomerName string                   `json:"customerName"`
	Permissions  *models.SharePermissions `json:"permissions"`
}

// SharedCustomer is the part of a customer a share link may reveal. Contact
// details, notes and sales data never leave through a link.
type SharedCustomer struct {
	Name            string           `json:"name"`
	CustomerNumber  string           `json:"customerNumber,omitempty"`
	MovingDate      *time.Time       `json:"movingDate,omitempty"`
	FromAddress     string           `json:"fromAddress,omitempty"`
	ToAddress       string           `json:"toAddress,omitempty"`
	Apartment       models.Apartment `json:"apartment"`
	TargetApartment models.Apartment `json:"targetApartment"`
	Services        []string         `json:"services,omitempty"`
}

// SharedQuote is the priced offer as the customer may see it. The contact e-mail,
// internal comment and author stay private.
type SharedQuote struct {
	ID          string           `json:"id"`
	FromAddress string           `json:"fromAddress,omitempty"`
	ToAddress   string           `json:"toAddress,omitempty"`
	MovingDate  *time.Time       `json:"date,omitempty"`
	Apartment   models.Apartment `json:"apartment"`
	Services    []string         `json:"services,omitempty"`
	Volume      float64          `json:"volume"`
	Distance    float64          `json:"distance"`
	Price       float64          `json:"price"`
	Status      enum.QuoteStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type SharedView struct {
	Valid       bool                    `json:"valid"`
	Permissions models.SharePermissions `json:"permissions"`
	ExpiresAt   time.Time               `json:"expiresAt"`
	Customer    *SharedCustomer         `json:"customer,omitempty"`
	Quote       *SharedQuote            `json:"quote,omitempty"`
	Invoices    []*models.Invoice       `json:"invoices,omitempty"`
	ShowPhotos  bool                    `json:"showPhotos"`
}

func (h *SharingHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SharingHandler.Create", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request CreateRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}

		customer, err := h.repositories.CustomerRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load customer", err)
			return
		}
		if customer == nil {
			custom_err.RespondWithError(c, span, http.StatusNotFound, "Customer not found", leadstack_errors.ErrCustomerNotFound)
			return
		}
		if request.CustomerName == "" {
			request.CustomerName = customer.Name
		}

		token, err := h.tokens.CreateShareToken(ctx, customer.ID, request.CustomerName, "", request.Permissions)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to create share link", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"url":   h.tokens.GenerateShareURL(token.Token),
		})
	}
}

// List returns the customer's currently valid links.
func (h *SharingHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SharingHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		tokens, err := h.tokens.GetCustomerTokens(ctx, c.Param("id"))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to list share links", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tokens": tokens})
	}
}

func (h *SharingHandler) Revoke() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SharingHandler.Revoke", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if err := h.tokens.Revoke(ctx, c.Param("token")); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to revoke share link", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *SharingHandler) URL() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"url": h.tokens.GenerateShareURL(c.Param("token"))})
	}
}

// View is the public endpoint behind a share link. The token is validated on every call.
func (h *SharingHandler) View() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "SharingHandler.View", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		token, err := h.tokens.ValidateToken(ctx, c.Param("token"))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to validate share link", err)
			return
		}
		if token == nil {
			c.JSON(http.StatusNotFound, gin.H{"valid": false})
			return
		}

		view := SharedView{
			Valid:       true,
			Permissions: token.Permissions,
			ExpiresAt:   token.ExpiresAt,
			ShowPhotos:  token.Permissions.ViewPhotos,
			Customer:    &SharedCustomer{Name: token.CustomerName},
		}

		if token.Permissions.ViewCustomer {
			customer, err := h.repositories.CustomerRepository.GetByID(ctx, token.CustomerID)
			if err != nil {
				custom_err.RespondWithServiceError(c, span, "Failed to load customer", err)
				return
			}
			if customer != nil {
				view.Customer = sharedCustomer(customer)
			}
		}

		if token.Permissions.ViewQuote {
			quote, err := h.sharedQuote(ctx, token)
			if err != nil {
				custom_err.RespondWithServiceError(c, span, "Failed to load quote", err)
				return
			}
			view.Quote = quote
		}

		if token.Permissions.ViewInvoice {
			invoices, err := h.repositories.InvoiceRepository.ListByCustomer(ctx, token.CustomerID)
			if err != nil {
				custom_err.RespondWithServiceError(c, span, "Failed to load invoices", err)
				return
			}
			view.Invoices = invoices
		}

		c.JSON(http.StatusOK, view)
	}
}

// sharedQuote loads the quote the link was created for. Links created before the
// customer had a quote follow the latest one.
func (h *SharingHandler) sharedQuote(ctx context.Context, token *models.ShareToken) (*SharedQuote, error) {
	var quote *models.Quote
	var err error
	if token.QuoteID == "" || token.QuoteID == share_token.DefaultQuoteID {
		quote, err = h.repositories.QuoteRepository.GetLatestByCustomer(ctx, token.CustomerID)
	} else {
		quote, err = h.repositories.QuoteRepository.GetByID(ctx, token.QuoteID)
	}
	if err != nil || quote == nil || quote.CustomerID != token.CustomerID {
		return nil, err
	}
	return &SharedQuote{
		ID:          quote.ID,
		FromAddress: quote.FromAddress,
		ToAddress:   quote.ToAddress,
		MovingDate:  quote.MovingDate,
		Apartment:   quote.Apartment,
		Services:    quote.Services,
		Volume:      quote.Volume,
		Distance:    quote.Distance,
		Price:       quote.Price,
		Status:      quote.Status,
		CreatedAt:   quote.CreatedAt,
	}, nil
}

func sharedCustomer(customer *models.Customer) *SharedCustomer {
	return &SharedCustomer{
		Name:            customer.Name,
		CustomerNumber:  customer.CustomerNumber,
		MovingDate:      customer.MovingDate,
		FromAddress:     customer.FromAddress,
		ToAddress:       customer.ToAddress,
		Apartment:       customer.Apartment,
		TargetApartment: customer.TargetApartment,
		Services:        customer.Services,
	}
}
