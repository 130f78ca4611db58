package models

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/relocrm/leadstack/internal/enum"
)

// Legacy rows mirror the spreadsheet-era tables. Column names follow the old sheet headers.

type LegacyCustomer struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Number      string         `gorm:"column:kundennummer"`
	Name        string         `gorm:"column:name"`
	Email       string         `gorm:"column:email"`
	Phone       string         `gorm:"column:telefon"`
	MovingDate  *time.Time     `gorm:"column:umzugsdatum"`
	FromAddress string         `gorm:"column:von_adresse"`
	ToAddress   string         `gorm:"column:nach_adresse"`
	Rooms       int            `gorm:"column:zimmer"`
	Area        float64        `gorm:"column:flaeche"`
	Floor       int            `gorm:"column:etage"`
	HasElevator bool           `gorm:"column:aufzug"`
	Services    pq.StringArray `gorm:"column:leistungen;type:text[]"`
	Notes       string         `gorm:"column:notizen"`
	CreatedAt   time.Time      `gorm:"column:erstellt_am"`
}

func (LegacyCustomer) TableName() string {
	return "legacy_customers"
}

func (l LegacyCustomer) ToCustomer() Customer {
	return Customer{
		ID:             l.ID,
		CustomerNumber: l.Number,
		Name:           strings.TrimSpace(l.Name),
		Email:          strings.ToLower(strings.TrimSpace(l.Email)),
		Phone:          strings.TrimSpace(l.Phone),
		MovingDate:     l.MovingDate,
		FromAddress:    l.FromAddress,
		ToAddress:      l.ToAddress,
		Apartment: Apartment{
			Rooms:       l.Rooms,
			Area:        l.Area,
			Floor:       l.Floor,
			HasElevator: l.HasElevator,
		},
		Services:  l.Services,
		Notes:     l.Notes,
		Source:    enum.ImportSourceLegacy,
		CreatedAt: l.CreatedAt,
	}
}

type LegacyQuote struct {
	ID           string     `gorm:"column:id;primaryKey"`
	CustomerID   string     `gorm:"column:kunden_id"`
	CustomerName string     `gorm:"column:kunde"`
	Price        float64    `gorm:"column:preis"`
	Volume       float64    `gorm:"column:volumen"`
	Distance     float64    `gorm:"column:entfernung"`
	Status       string     `gorm:"column:status"`
	MovingDate   *time.Time `gorm:"column:umzugsdatum"`
	Comment      string     `gorm:"column:kommentar"`
	CreatedAt    time.Time  `gorm:"column:erstellt_am"`
}

func (LegacyQuote) TableName() string {
	return "legacy_quotes"
}

func (l LegacyQuote) ToQuote() Quote {
	status := enum.QuoteStatus(strings.ToLower(strings.TrimSpace(l.Status)))
	if status == "" {
		status = enum.QuoteStatusDraft
	}
	return Quote{
		ID:           l.ID,
		CustomerID:   l.CustomerID,
		CustomerName: l.CustomerName,
		Price:        l.Price,
		Volume:       l.Volume,
		Distance:     l.Distance,
		Status:       status,
		MovingDate:   l.MovingDate,
		Comment:      l.Comment,
		CreatedBy:    enum.ImportSourceLegacy.String(),
		CreatedAt:    l.CreatedAt,
	}
}

type LegacyInvoice struct {
	ID            string     `gorm:"column:id;primaryKey"`
	InvoiceNumber string     `gorm:"column:rechnungsnummer"`
	CustomerID    string     `gorm:"column:kunden_id"`
	CustomerName  string     `gorm:"column:kunde"`
	QuoteID       string     `gorm:"column:angebots_id"`
	NetAmount     float64    `gorm:"column:netto"`
	TaxAmount     float64    `gorm:"column:mwst"`
	TotalAmount   float64    `gorm:"column:brutto"`
	Paid          bool       `gorm:"column:bezahlt"`
	DueDate       *time.Time `gorm:"column:faellig_am"`
	CreatedAt     time.Time  `gorm:"column:erstellt_am"`
}

func (LegacyInvoice) TableName() string {
	return "legacy_invoices"
}

func (l LegacyInvoice) ToInvoice() Invoice {
	return Invoice{
		ID:            l.ID,
		InvoiceNumber: l.InvoiceNumber,
		CustomerID:    l.CustomerID,
		CustomerName:  l.CustomerName,
		QuoteID:       l.QuoteID,
		NetAmount:     l.NetAmount,
		TaxAmount:     l.TaxAmount,
		TotalAmount:   l.TotalAmount,
		Paid:          l.Paid,
		DueDate:       l.DueDate,
		CreatedAt:     l.CreatedAt,
	}
}
