package dto

import (
	"strings"
	"time"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/pkg/errors"

	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

// UnknownName is the placeholder some portals send instead of a real name.
const UnknownName = "Unbekannt"

const DefaultService = "Umzug"

// ParsedCustomerData is the typed result of parsing a lead email.
// Only Name is required; everything else is best effort.
type ParsedCustomerData struct {
	Name            string           `json:"name"`
	Email           string           `json:"email,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	MovingDate      *time.Time       `json:"movingDate,omitempty"`
	FromAddress     string           `json:"fromAddress,omitempty"`
	ToAddress       string           `json:"toAddress,omitempty"`
	Apartment       models.Apartment `json:"apartment"`
	TargetApartment models.Apartment `json:"targetApartment"`
	Services        []string         `json:"services"`
	Distance        float64          `json:"distance,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	RequestNumber   string           `json:"requestNumber,omitempty"`
	Source          enum.EmailSource `json:"source"`
}

// Normalize trims fields, lower-cases the email and fills defaults.
func (p *ParsedCustomerData) Normalize() {
	p.Name = strings.Join(strings.Fields(p.Name), " ")
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.FromAddress = strings.TrimSpace(p.FromAddress)
	p.ToAddress = strings.TrimSpace(p.ToAddress)
	p.Notes = strings.TrimSpace(p.Notes)
	if len(p.Services) == 0 {
		p.Services = []string{DefaultService}
	}
	if p.Source == "" {
		p.Source = enum.EmailSourceOther
	}
}

func (p *ParsedCustomerData) HasName() bool {
	name := strings.TrimSpace(p.Name)
	return name != "" && !strings.EqualFold(name, UnknownName)
}

func (p *ParsedCustomerData) HasContact() bool {
	return p.Email != "" || p.Phone != ""
}

// Validate rejects data that must not flow into a customer record.
func (p *ParsedCustomerData) Validate() error {
	if p == nil {
		return leadstack_errors.ErrInvalidParsedData
	}
	if !p.HasName() {
		return leadstack_errors.ErrNoCustomerName
	}
	if p.Email != "" {
		validation := mailvalidate.ValidateEmailSyntax(p.Email)
		if !validation.IsValid {
			return errors.Wrapf(leadstack_errors.ErrInvalidParsedData, "email %q", p.Email)
		}
	}
	if p.Apartment.Rooms < 0 || p.Apartment.Area < 0 || p.TargetApartment.Rooms < 0 || p.TargetApartment.Area < 0 {
		return errors.Wrap(leadstack_errors.ErrInvalidParsedData, "negative apartment size")
	}
	if p.Distance < 0 {
		return errors.Wrap(leadstack_errors.ErrInvalidParsedData, "negative distance")
	}
	return nil
}

// ToCustomer maps validated data onto a new customer record.
func (p *ParsedCustomerData) ToCustomer() *models.Customer {
	return &models.Customer{
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		MovingDate:      p.MovingDate,
		FromAddress:     p.FromAddress,
		ToAddress:       p.ToAddress,
		Distance:        p.Distance,
		Apartment:       p.Apartment,
		TargetApartment: p.TargetApartment,
		Services:        append([]string(nil), p.Services...),
		Notes:           p.Notes,
		LeadSource:      p.Source,
	}
}
