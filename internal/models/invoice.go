package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/utils"
)

type Invoice struct {
	ID            string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"column:invoice_number;type:varchar(50);index" json:"invoiceNumber"`
	CustomerID    string     `gorm:"column:customer_id;type:varchar(50);index;not null" json:"customerId"`
	CustomerName  string     `gorm:"column:customer_name;type:varchar(255)" json:"customerName"`
	QuoteID       string     `gorm:"column:quote_id;type:varchar(50);index" json:"quoteId,omitempty"`
	NetAmount     float64    `gorm:"column:net_amount;default:0" json:"netAmount"`
	TaxAmount     float64    `gorm:"column:tax_amount;default:0" json:"taxAmount"`
	TotalAmount   float64    `gorm:"column:total_amount;default:0" json:"totalAmount"`
	Paid          bool       `gorm:"column:paid;default:false" json:"paid"`
	DueDate       *time.Time `gorm:"column:due_date;type:date" json:"dueDate,omitempty"`
	PaidAt        *time.Time `gorm:"column:paid_at;type:timestamp" json:"paidAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.GenerateNanoIDWithPrefix("inv", 16)
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.Now()
	}
	return nil
}
