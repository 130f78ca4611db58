package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/utils"
)

type Quote struct {
	ID            string           `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	CustomerID    string           `gorm:"column:customer_id;type:varchar(50);index;not null" json:"customerId"`
	CustomerName  string           `gorm:"column:customer_name;type:varchar(255)" json:"customerName"`
	CustomerEmail string           `gorm:"column:customer_email;type:varchar(255)" json:"customerEmail,omitempty"`
	FromAddress   string           `gorm:"column:from_address;type:varchar(500)" json:"fromAddress"`
	ToAddress     string           `gorm:"column:to_address;type:varchar(500)" json:"toAddress"`
	MovingDate    *time.Time       `gorm:"column:moving_date;type:date" json:"date,omitempty"`
	Apartment     Apartment        `gorm:"embedded;embeddedPrefix:apartment_" json:"apartment"`
	Services      pq.StringArray   `gorm:"column:services;type:text[]" json:"services"`
	Volume        float64          `gorm:"column:volume;default:0" json:"volume"`
	Distance      float64          `gorm:"column:distance;default:0" json:"distance"`
	Price         float64          `gorm:"column:price;default:0" json:"price"`
	Status        enum.QuoteStatus `gorm:"column:status;type:varchar(50);index" json:"status"`
	Comment       string           `gorm:"column:comment;type:text" json:"comment,omitempty"`
	CreatedBy     string           `gorm:"column:created_by;type:varchar(255)" json:"createdBy,omitempty"`
	SourceEmailID string           `gorm:"column:source_email_id;type:varchar(50);index" json:"sourceEmailId,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Quote) TableName() string {
	return "quotes"
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = utils.GenerateNanoIDWithPrefix("quote", 16)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.Now()
	}
	return nil
}
